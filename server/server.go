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


// Package server provides the relay which is the main entry point of the
// collab system. It starts the websocket relay, the profiling server and the
// backend services behind them.
package server

import (
	"context"
	"errors"
	gosync "sync"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/server/profiling"
	"github.com/datacanvas/collab/server/profiling/prometheus"
	"github.com/datacanvas/collab/server/rooms"
)

// Relay is a relay node of collab. It receives frames from the replicas,
// keeps a replica of every open document and fans the frames out to the
// other replicas of the room, on this node and on the others.
type Relay struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	roomServer      *rooms.Server
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Relay.
func New(conf *Config) (*Relay, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Redis,
		conf.Housekeeping,
		metrics,
	)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil && conf.Profiling.Enabled {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Relay{
		conf:            conf,
		backend:         be,
		roomServer:      rooms.NewServer(conf.Relay, be),
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the backend services and opens the relay port.
func (r *Relay) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	return r.roomServer.Start()
}

// Shutdown shuts down this relay. Peers are disconnected and the documents
// with unsaved changes are saved before the backend is closed.
func (r *Relay) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	var errs []error
	if err := r.roomServer.Shutdown(graceful); err != nil {
		logging.DefaultLogger().Errorf("save snapshots on shutdown: %v", err)
		errs = append(errs, err)
	}
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		errs = append(errs, err)
	}

	close(r.shutdownCh)
	r.shutdown = true
	return errors.Join(errs...)
}

// ShutdownCh returns the shutdown channel.
func (r *Relay) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RelayAddr returns the address of the relay.
func (r *Relay) RelayAddr() string {
	return r.conf.RelayAddr()
}

// NodeID returns the id of this relay node.
func (r *Relay) NodeID() string {
	return r.backend.NodeID
}

// Content returns the content of the relay's replica of the document. It is
// used for testing.
func (r *Relay) Content(k key.Key) (string, error) {
	return r.roomServer.Content(k)
}

// SaveSnapshots saves the snapshots of the documents with unsaved changes.
func (r *Relay) SaveSnapshots(ctx context.Context) error {
	return r.roomServer.SaveSnapshots(ctx)
}

// LoadSnapshot returns the stored snapshot of the document. It is used for
// testing.
func (r *Relay) LoadSnapshot(ctx context.Context, k key.Key) ([]byte, error) {
	return r.backend.Snapshots.Load(ctx, k)
}
