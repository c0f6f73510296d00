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
	"sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/transport"
)

const waitFor = 2 * gotime.Second

type recorder struct {
	mu          sync.Mutex
	messages    []string
	connects    int
	disconnects int
}

func (r *recorder) attach(conn transport.Conn) {
	conn.OnMessage(func(data []byte) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.messages = append(r.messages, string(data))
	})
	conn.OnConnect(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.connects++
	})
	conn.OnDisconnect(func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.disconnects++
	})
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recorder) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

func (r *recorder) Disconnects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnects
}

func TestNetwork(t *testing.T) {
	room, err := key.ForCell("nb1", "c1")
	require.NoError(t, err)

	dial := func(t *testing.T, network *transport.Network) (transport.Conn, *recorder) {
		conn, err := network.Dial("", room)
		require.NoError(t, err)
		rec := &recorder{}
		rec.attach(conn)
		require.NoError(t, conn.Start())
		t.Cleanup(func() { assert.NoError(t, conn.Close()) })
		return conn, rec
	}

	t.Run("broadcast test", func(t *testing.T) {
		network := transport.NewNetwork()
		c1, r1 := dial(t, network)
		_, r2 := dial(t, network)
		_, r3 := dial(t, network)

		assert.Eventually(t, func() bool { return r2.Connects() == 1 }, waitFor, 5*gotime.Millisecond)
		assert.Equal(t, 3, network.Members(room))

		require.NoError(t, c1.Send([]byte("a")))
		require.NoError(t, c1.Send([]byte("b")))

		for _, rec := range []*recorder{r2, r3} {
			rec := rec
			assert.Eventually(t, func() bool { return len(rec.Messages()) == 2 }, waitFor, 5*gotime.Millisecond)
			assert.Equal(t, []string{"a", "b"}, rec.Messages())
		}
		assert.Empty(t, r1.Messages())
	})

	t.Run("disconnect and reconnect test", func(t *testing.T) {
		network := transport.NewNetwork()
		c1, r1 := dial(t, network)
		_, r2 := dial(t, network)
		assert.Eventually(t, func() bool { return r1.Connects() == 1 }, waitFor, 5*gotime.Millisecond)

		network.Disconnect(c1)
		assert.Eventually(t, func() bool { return r1.Disconnects() == 1 }, waitFor, 5*gotime.Millisecond)
		assert.ErrorIs(t, c1.Send([]byte("lost")), transport.ErrTransportFailure)

		network.Reconnect(c1)
		assert.Eventually(t, func() bool { return r1.Connects() == 2 }, waitFor, 5*gotime.Millisecond)
		require.NoError(t, c1.Send([]byte("back")))
		assert.Eventually(t, func() bool { return len(r2.Messages()) == 1 }, waitFor, 5*gotime.Millisecond)
		assert.Equal(t, []string{"back"}, r2.Messages())
	})

	t.Run("duplicate test", func(t *testing.T) {
		network := transport.NewNetwork()
		network.SetDuplicate(true)
		c1, _ := dial(t, network)
		_, r2 := dial(t, network)

		require.NoError(t, c1.Send([]byte("x")))
		assert.Eventually(t, func() bool { return len(r2.Messages()) == 2 }, waitFor, 5*gotime.Millisecond)
	})

	t.Run("closed connection test", func(t *testing.T) {
		network := transport.NewNetwork()
		conn, err := network.Dial("", room)
		require.NoError(t, err)
		require.NoError(t, conn.Start())
		require.NoError(t, conn.Close())
		require.NoError(t, conn.Close())

		assert.ErrorIs(t, conn.Send([]byte("x")), transport.ErrConnClosed)
		assert.ErrorIs(t, conn.Start(), transport.ErrConnClosed)
		assert.Equal(t, 0, network.Members(room))
	})

	t.Run("invalid room test", func(t *testing.T) {
		_, err := transport.NewNetwork().Dial("", key.Key("nb1"))
		assert.ErrorIs(t, err, key.ErrInvalidKey)
	})
}
