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


package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/datacanvas/collab/pkg/document/key"
)

// Network is an in-process Dialer. Every frame sent on a connection is
// delivered to the other connected members of the same room. It is meant for
// tests and for embedding replicas in one process.
type Network struct {
	mu        sync.Mutex
	rooms     map[key.Key]map[*memConn]struct{}
	dialed    map[key.Key][]*memConn
	duplicate bool
	queueSize int
}

// NewNetwork creates a new in-process network.
func NewNetwork() *Network {
	return &Network{
		rooms:     make(map[key.Key]map[*memConn]struct{}),
		dialed:    make(map[key.Key][]*memConn),
		queueSize: DefaultQueueSize,
	}
}

// SetDuplicate makes the network deliver every frame twice.
func (n *Network) SetDuplicate(duplicate bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.duplicate = duplicate
}

// Dial creates a connection to the given room. The endpoint is ignored.
func (n *Network) Dial(_ string, room key.Key) (Conn, error) {
	if err := room.Validate(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &memConn{
		network: n,
		room:    room,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	n.mu.Lock()
	n.dialed[room] = append(n.dialed[room], c)
	n.mu.Unlock()
	return c, nil
}

// Dialed returns the connections dialed to the given room, in dial order.
func (n *Network) Dialed(room key.Key) []Conn {
	n.mu.Lock()
	defer n.mu.Unlock()

	conns := make([]Conn, 0, len(n.dialed[room]))
	for _, c := range n.dialed[room] {
		conns = append(conns, c)
	}
	return conns
}

// Disconnect drops the given connection from its room as if the network
// failed. It stays down until Reconnect.
func (n *Network) Disconnect(conn Conn) {
	c, ok := conn.(*memConn)
	if !ok {
		return
	}

	if n.leave(c) {
		c.push(event{err: fmt.Errorf("%s partitioned: %w", c.room, ErrTransportFailure)})
	}
}

// Reconnect joins a connection dropped by Disconnect again.
func (n *Network) Reconnect(conn Conn) {
	c, ok := conn.(*memConn)
	if !ok {
		return
	}

	c.mu.Lock()
	alive := c.started && !c.closed
	c.mu.Unlock()
	if alive {
		n.join(c)
	}
}

// Members returns the number of connected members of the given room.
func (n *Network) Members(room key.Key) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.rooms[room])
}

func (n *Network) join(c *memConn) {
	n.mu.Lock()
	members, ok := n.rooms[c.room]
	if !ok {
		members = make(map[*memConn]struct{})
		n.rooms[c.room] = members
	}
	_, already := members[c]
	members[c] = struct{}{}
	n.mu.Unlock()

	if !already {
		c.push(event{connected: true})
	}
}

// leave returns whether the connection was a member of its room.
func (n *Network) leave(c *memConn) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	members := n.rooms[c.room]
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(n.rooms, c.room)
	}
	return true
}

func (n *Network) broadcast(from *memConn, data []byte) error {
	n.mu.Lock()
	if _, ok := n.rooms[from.room][from]; !ok {
		n.mu.Unlock()
		return fmt.Errorf("send to %s: not connected: %w", from.room, ErrTransportFailure)
	}
	peers := make([]*memConn, 0, len(n.rooms[from.room]))
	for peer := range n.rooms[from.room] {
		if peer != from {
			peers = append(peers, peer)
		}
	}
	times := 1
	if n.duplicate {
		times = 2
	}
	n.mu.Unlock()

	var errs []error
	for _, peer := range peers {
		for i := 0; i < times; i++ {
			if err := peer.deliver(data, n.queueSize); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

type event struct {
	data      []byte
	connected bool
	err       error
}

type memConn struct {
	handlers

	network *Network
	room    key.Key

	mu       sync.Mutex
	events   []event
	messages int
	started  bool
	closed   bool

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

func (c *memConn) Room() key.Key {
	return c.room
}

func (c *memConn) OnMessage(handler func(data []byte)) {
	c.onMessage = handler
}

func (c *memConn) OnConnect(handler func()) {
	c.onConnect = handler
}

func (c *memConn) OnDisconnect(handler func(err error)) {
	c.onDisconnect = handler
}

func (c *memConn) Send(data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnClosed
	}

	return c.network.broadcast(c, data)
}

func (c *memConn) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
	c.network.join(c)
	return nil
}

func (c *memConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.network.leave(c)
	close(c.done)
	c.wg.Wait()
	return nil
}

func (c *memConn) deliver(data []byte, limit int) error {
	c.mu.Lock()
	if c.messages >= limit {
		c.mu.Unlock()
		return fmt.Errorf("deliver to %s: queue full: %w", c.room, ErrTransportFailure)
	}
	c.messages++
	c.mu.Unlock()

	c.push(event{data: data})
	return nil
}

func (c *memConn) push(e event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// run dispatches events to the handlers one at a time, in arrival order.
func (c *memConn) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case <-c.notify:
		}

		for {
			c.mu.Lock()
			if len(c.events) == 0 || c.closed {
				c.mu.Unlock()
				break
			}
			e := c.events[0]
			c.events = c.events[1:]
			if e.data != nil {
				c.messages--
			}
			c.mu.Unlock()

			switch {
			case e.data != nil:
				c.message(e.data)
			case e.connected:
				c.connect()
			default:
				c.disconnect(e.err)
			}
		}
	}
}
