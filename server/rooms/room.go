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


package rooms

import (
	"sync"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/registry"
	"github.com/datacanvas/collab/server/backend/broker"
)

// Room kinds used as metric labels.
const (
	kindDocument = "document"
	kindNotebook = "notebook"
)

// Room is the set of peers connected to one key on this node. Document
// rooms also hold the relay's replica of the document.
type Room struct {
	key  key.Key
	kind string

	// handle is the replica of a document room, nil for notebook rooms.
	handle *registry.Handle
	sub    broker.Subscription

	mu     sync.RWMutex
	peers  map[string]*peer
	closed bool
}

func newRoom(k key.Key) *Room {
	kind := kindNotebook
	if k.IsCell() {
		kind = kindDocument
	}

	return &Room{
		key:   k,
		kind:  kind,
		peers: make(map[string]*peer),
	}
}

// Key returns the key of this room.
func (r *Room) Key() key.Key {
	return r.key
}

// Len returns the number of connected peers.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.peers)
}

func (r *Room) add(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.peers[p.id] = p
	return true
}

// remove drops the peer and reports whether the room became empty, in
// which case it is closed for good.
func (r *Room) remove(p *peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.peers, p.id)
	if len(r.peers) == 0 {
		r.closed = true
	}
	return r.closed
}

// broadcast queues the frame to every peer except the excluded one and
// returns the number of peers it was queued to.
func (r *Room) broadcast(data []byte, exclude *peer) int {
	r.mu.RLock()
	targets := make([]*peer, 0, len(r.peers))
	for _, p := range r.peers {
		if p != exclude {
			targets = append(targets, p)
		}
	}
	r.mu.RUnlock()

	count := 0
	for _, p := range targets {
		if p.enqueue(data) {
			count++
		}
	}
	return count
}
