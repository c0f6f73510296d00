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

// Package awareness tracks the ephemeral presence of the collaborators of a
// notebook: who is there, which cell they focus on and where their cursor is.
// Presence is last-write-wins per client on a logical clock and expires when
// a client stops broadcasting.
package awareness

import (
	"sort"
	"sync"
	gotime "time"

	"github.com/rs/xid"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/time"
)

// DefaultTimeout is the duration after which a silent peer is evicted.
const DefaultTimeout = 30 * gotime.Second

// Handler receives the changes of the active states.
type Handler func(event Event)

// Option configures a Tracker.
type Option func(*Tracker)

// WithTimeout sets the duration after which a silent peer is evicted.
func WithTimeout(timeout gotime.Duration) Option {
	return func(t *Tracker) {
		t.timeout = timeout
	}
}

// WithNow sets the wall clock used to stamp LastSeen.
func WithNow(now func() gotime.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

type subscription struct {
	token   string
	handler Handler
}

// Tracker owns the presence of the local client and of its peers.
type Tracker struct {
	timeout gotime.Duration
	now     func() gotime.Time

	mu    sync.RWMutex
	local State
	peers map[time.ActorID]*State

	// departed remembers the clock of explicit leaves, so that a delayed
	// broadcast sent before the leave does not bring the peer back.
	departed map[time.ActorID]departure

	subscriptions []subscription
}

type departure struct {
	clock uint64
	at    gotime.Time
}

// NewTracker creates a new Tracker for the given local client.
func NewTracker(localID time.ActorID, opts ...Option) *Tracker {
	t := &Tracker{
		timeout:  DefaultTimeout,
		now:      gotime.Now,
		peers:    make(map[time.ActorID]*State),
		departed: make(map[time.ActorID]departure),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.local = State{ClientID: localID, LastSeen: t.now()}
	return t
}

// Timeout returns the duration after which a silent peer is evicted.
func (t *Tracker) Timeout() gotime.Duration {
	return t.timeout
}

// LocalID returns the id of the local client.
func (t *Tracker) LocalID() time.ActorID {
	return t.local.ClientID
}

// SetLocalState replaces the local fields and returns the update to
// broadcast.
func (t *Tracker) SetLocalState(fields Fields) Update {
	return t.UpdateLocalState(func(f *Fields) {
		*f = fields
	})
}

// UpdateLocalState changes the local fields with the given function and
// returns the update to broadcast.
func (t *Tracker) UpdateLocalState(fn func(fields *Fields)) Update {
	t.mu.Lock()
	fields := t.local.Fields.DeepCopy()
	fn(&fields)
	t.local.Fields = fields
	update := t.touchLocal()
	state := t.local
	t.mu.Unlock()

	t.publish(Event{Type: Updated, ClientID: state.ClientID, State: state})
	return update
}

// Renew returns a broadcast of the unchanged local state with a fresh clock,
// so peers do not expire this client while it is idle.
func (t *Tracker) Renew() Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.touchLocal()
}

// Leave returns the broadcast that tells peers this client left.
func (t *Tracker) Leave() Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.local.Clock++
	return Update{ClientID: t.local.ClientID, Clock: t.local.Clock}
}

func (t *Tracker) touchLocal() Update {
	t.local.Clock++
	t.local.LastSeen = t.now()
	fields := t.local.Fields.DeepCopy()
	return Update{
		ClientID: t.local.ClientID,
		Fields:   &fields,
		Clock:    t.local.Clock,
	}
}

// LocalState returns the state of the local client.
func (t *Tracker) LocalState() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state := t.local
	state.Fields = state.Fields.DeepCopy()
	return state
}

// Apply is a shorthand of OnPeerUpdate for a received Update.
func (t *Tracker) Apply(update Update) bool {
	return t.OnPeerUpdate(update.ClientID, update.Fields, update.Clock)
}

// OnPeerUpdate applies a broadcast of a peer. It returns false when the
// broadcast is not newer than what is already known, including duplicates.
// Nil fields remove the peer.
func (t *Tracker) OnPeerUpdate(clientID time.ActorID, fields *Fields, clock uint64) bool {
	t.mu.Lock()
	if clientID == t.local.ClientID {
		t.mu.Unlock()
		return false
	}

	prev, known := t.peers[clientID]
	if known && clock <= prev.Clock {
		t.mu.Unlock()
		return false
	}
	if d, ok := t.departed[clientID]; ok && clock <= d.clock {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	if fields == nil {
		delete(t.peers, clientID)
		t.departed[clientID] = departure{clock: clock, at: now}
		t.mu.Unlock()

		if known {
			t.publish(Event{Type: Removed, ClientID: clientID, State: *prev})
		}
		return known
	}

	state := &State{
		ClientID: clientID,
		Fields:   fields.DeepCopy(),
		Clock:    clock,
		LastSeen: now,
	}
	t.peers[clientID] = state
	delete(t.departed, clientID)
	t.mu.Unlock()

	eventType := Added
	if known {
		eventType = Updated
	}
	t.publish(Event{Type: eventType, ClientID: clientID, State: *state})
	return true
}

// ActiveStates returns the local state and the states of the peers seen
// within the timeout, sorted by client id. A non-empty document key keeps
// only the clients focused on that document, the local one as well.
func (t *Tracker) ActiveStates(documentKey key.Key) []State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	states := []State{t.local}
	for _, state := range t.peers {
		if now.Sub(state.LastSeen) > t.timeout {
			continue
		}
		states = append(states, *state)
	}

	filtered := states[:0]
	for _, state := range states {
		if documentKey != "" && state.Fields.DocumentKey != documentKey {
			continue
		}
		state.Fields = state.Fields.DeepCopy()
		filtered = append(filtered, state)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ClientID < filtered[j].ClientID
	})
	return filtered
}

// ExpireStale evicts the peers not seen within the timeout and returns their
// ids in ascending order. An evicted peer is accepted again on its next
// broadcast, whatever its clock.
func (t *Tracker) ExpireStale(now gotime.Time, timeout gotime.Duration) []time.ActorID {
	t.mu.Lock()
	var expired []State
	for id, state := range t.peers {
		if now.Sub(state.LastSeen) > timeout {
			expired = append(expired, *state)
			delete(t.peers, id)
		}
	}
	for id, d := range t.departed {
		if now.Sub(d.at) > timeout {
			delete(t.departed, id)
		}
	}
	t.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ClientID < expired[j].ClientID
	})
	ids := make([]time.ActorID, 0, len(expired))
	for _, state := range expired {
		ids = append(ids, state.ClientID)
		t.publish(Event{Type: Removed, ClientID: state.ClientID, State: state})
	}
	return ids
}

// Subscribe registers a handler for the changes of the active states and
// returns the token to unsubscribe with.
func (t *Tracker) Subscribe(handler Handler) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	token := xid.New().String()
	t.subscriptions = append(t.subscriptions, subscription{token: token, handler: handler})
	return token
}

// Unsubscribe removes the handler registered with the given token.
func (t *Tracker) Unsubscribe(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, sub := range t.subscriptions {
		if sub.token == token {
			t.subscriptions = append(t.subscriptions[:i], t.subscriptions[i+1:]...)
			return
		}
	}
}

func (t *Tracker) publish(event Event) {
	t.mu.RLock()
	subs := make([]subscription, len(t.subscriptions))
	copy(subs, t.subscriptions)
	t.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}
