/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package profiling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/server/profiling/prometheus"
)

const (
	pathMetrics = "/metrics"
	prefixPProf = "/debug/pprof"

	// shutdownTimeout bounds a graceful shutdown of the profiling server.
	shutdownTimeout = 5 * time.Second
)

// pprofProfiles are the runtime profiles served by name.
var pprofProfiles = []string{"heap", "goroutine", "block", "mutex", "allocs", "threadcreate"}

// Server serves the metrics of the relay and, when enabled, the pprof
// endpoints of the runtime.
type Server struct {
	conf       *Config
	router     *mux.Router
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates an instance of Server.
func NewServer(conf *Config, metrics *prometheus.Metrics) *Server {
	router := mux.NewRouter()
	if metrics != nil {
		router.Handle(pathMetrics, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{
			ErrorLog: promLogger{},
		})).Methods(http.MethodGet)
	}

	if conf.EnablePprof {
		debug := router.PathPrefix(prefixPProf).Subrouter()
		debug.HandleFunc("/profile", pprof.Profile)
		debug.HandleFunc("/symbol", pprof.Symbol)
		debug.HandleFunc("/cmdline", pprof.Cmdline)
		debug.HandleFunc("/trace", pprof.Trace)
		for _, name := range pprofProfiles {
			debug.Handle("/"+name, pprof.Handler(name))
		}
		debug.PathPrefix("/").HandlerFunc(pprof.Index)
	}

	return &Server{
		conf:   conf,
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the handler of the profiling endpoints.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen profiling %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	go func() {
		logging.DefaultLogger().Infof("serving profiling on %s", lis.Addr())
		if err := s.httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Errorf("HTTP server Serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown shuts down the server. A graceful shutdown lets in-flight scrapes
// finish for a while.
func (s *Server) Shutdown(graceful bool) {
	if !graceful {
		if err := s.httpServer.Close(); err != nil {
			logging.DefaultLogger().Errorf("HTTP server close: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
	}
}

// promLogger reports the errors of the metrics handler.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logging.DefaultLogger().Error(v...)
}
