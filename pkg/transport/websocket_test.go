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


package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	gotime "time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/transport"
)

// echoServer echoes every frame back and remembers the requested paths.
type echoServer struct {
	mu    sync.Mutex
	paths []string
	conns []*websocket.Conn
}

func (s *echoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func (s *echoServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *echoServer) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func TestWebSocket(t *testing.T) {
	room, err := key.ForCell("nb1", "c1")
	require.NoError(t, err)

	t.Run("send and receive test", func(t *testing.T) {
		srv := &echoServer{}
		ts := httptest.NewServer(srv)
		defer ts.Close()

		dialer := transport.NewWebSocketDialer(transport.WithBackOff(10*gotime.Millisecond, 50*gotime.Millisecond))
		conn, err := dialer.Dial(ts.URL, room)
		require.NoError(t, err)
		assert.Equal(t, room, conn.Room())

		assert.ErrorIs(t, conn.Send([]byte("early")), transport.ErrTransportFailure)

		rec := &recorder{}
		rec.attach(conn)
		require.NoError(t, conn.Start())
		defer func() { assert.NoError(t, conn.Close()) }()

		assert.Eventually(t, func() bool { return rec.Connects() == 1 }, waitFor, 5*gotime.Millisecond)
		require.NoError(t, conn.Send([]byte("hello")))
		assert.Eventually(t, func() bool { return len(rec.Messages()) == 1 }, waitFor, 5*gotime.Millisecond)
		assert.Equal(t, []string{"hello"}, rec.Messages())
		assert.Equal(t, []string{"/rooms/" + room.String()}, srv.Paths())
	})

	t.Run("reconnect test", func(t *testing.T) {
		srv := &echoServer{}
		ts := httptest.NewServer(srv)
		defer ts.Close()

		dialer := transport.NewWebSocketDialer(transport.WithBackOff(10*gotime.Millisecond, 50*gotime.Millisecond))
		conn, err := dialer.Dial(strings.Replace(ts.URL, "http", "ws", 1)+"/", room)
		require.NoError(t, err)
		rec := &recorder{}
		rec.attach(conn)
		require.NoError(t, conn.Start())
		defer func() { assert.NoError(t, conn.Close()) }()

		assert.Eventually(t, func() bool { return rec.Connects() == 1 }, waitFor, 5*gotime.Millisecond)
		srv.dropAll()
		assert.Eventually(t, func() bool { return rec.Disconnects() == 1 }, waitFor, 5*gotime.Millisecond)
		assert.Eventually(t, func() bool { return rec.Connects() == 2 }, waitFor, 5*gotime.Millisecond)

		require.NoError(t, conn.Send([]byte("again")))
		assert.Eventually(t, func() bool { return len(rec.Messages()) == 1 }, waitFor, 5*gotime.Millisecond)
	})

	t.Run("backoff policy test", func(t *testing.T) {
		policy := transport.NewBackOff(gotime.Second, 30*gotime.Second)
		assert.Equal(t, gotime.Second, policy.NextBackOff())
		assert.Equal(t, 1500*gotime.Millisecond, policy.NextBackOff())
		for i := 0; i < 20; i++ {
			interval := policy.NextBackOff()
			assert.Greater(t, interval, gotime.Duration(0))
			assert.LessOrEqual(t, interval, 30*gotime.Second)
		}
		assert.Equal(t, 30*gotime.Second, policy.NextBackOff())

		policy.Reset()
		assert.Equal(t, gotime.Second, policy.NextBackOff())
	})
}
