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


package broker

import (
	"context"
	"sync"

	"github.com/rs/xid"

	"github.com/datacanvas/collab/pkg/document/key"
)

// Bus connects the memory brokers of the nodes running in one process.
type Bus struct {
	mu   sync.RWMutex
	subs map[key.Key]map[string]*memorySubscription
}

// NewBus creates a new Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[key.Key]map[string]*memorySubscription)}
}

// Broker returns the broker of the given node on this bus.
func (b *Bus) Broker(node string) *Memory {
	return &Memory{bus: b, node: node}
}

// Memory is a Broker delivering frames between nodes of one process. A
// single node relay uses it when no shared broker is configured.
type Memory struct {
	bus  *Bus
	node string
}

// NewMemory creates a broker on a bus of its own.
func NewMemory(node string) *Memory {
	return NewBus().Broker(node)
}

// Publish delivers the frame to the subscribers of the other nodes.
func (m *Memory) Publish(_ context.Context, room key.Key, data []byte) error {
	m.bus.mu.RLock()
	subs := make([]*memorySubscription, 0, len(m.bus.subs[room]))
	for _, sub := range m.bus.subs[room] {
		subs = append(subs, sub)
	}
	m.bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.node == m.node {
			continue
		}

		copied := make([]byte, len(data))
		copy(copied, data)
		sub.handler(copied)
	}
	return nil
}

// Subscribe registers the handler for the frames of the room.
func (m *Memory) Subscribe(_ context.Context, room key.Key, handler Handler) (Subscription, error) {
	sub := &memorySubscription{
		id:      xid.New().String(),
		bus:     m.bus,
		room:    room,
		node:    m.node,
		handler: handler,
	}

	m.bus.mu.Lock()
	defer m.bus.mu.Unlock()
	if _, ok := m.bus.subs[room]; !ok {
		m.bus.subs[room] = make(map[string]*memorySubscription)
	}
	m.bus.subs[room][sub.id] = sub

	return sub, nil
}

// Close does nothing for the memory broker.
func (m *Memory) Close() error {
	return nil
}

type memorySubscription struct {
	id      string
	bus     *Bus
	room    key.Key
	node    string
	handler Handler
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subs[s.room], s.id)
	if len(s.bus.subs[s.room]) == 0 {
		delete(s.bus.subs, s.room)
	}
	return nil
}
