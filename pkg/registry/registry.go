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

// Package registry owns the documents of a replica. It creates a document on
// first reference, serializes every access to it and destroys it once nobody
// holds it and nothing unsaved remains.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
)

var (
	// ErrDocumentNotFound is returned when the key was never created or has
	// been destroyed already.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrDocumentInUse is returned when removing a document that still has
	// holders.
	ErrDocumentInUse = errors.FailedPrecond("document in use").WithCode("ErrDocumentInUse")
)

// DeltaHandler receives the visible changes caused by remote operations.
// Handlers run synchronously inside the document's single-writer region, so
// they must not call back into the registry for the same document.
type DeltaHandler func(k key.Key, deltas []crdt.Delta)

// Option configures a Registry.
type Option func(*Registry)

// WithRetainUnsaved keeps a document alive after its last release until
// MarkSaved confirms that its latest state has been persisted.
func WithRetainUnsaved() Option {
	return func(r *Registry) {
		r.retainUnsaved = true
	}
}

// WithOnDestroy registers a callback invoked after a document is destroyed.
func WithOnDestroy(fn func(k key.Key)) Option {
	return func(r *Registry) {
		r.onDestroy = fn
	}
}

// WithFreshActors makes every created document edit under a newly drawn
// actor instead of the registry's one. A document destroyed and created again
// then never reuses the tickets of its previous incarnation.
func WithFreshActors() Option {
	return func(r *Registry) {
		r.freshActors = true
	}
}

// WithLogger sets the logger of the registry.
func WithLogger(logger logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

type subscription struct {
	token   string
	handler DeltaHandler
}

type entry struct {
	key key.Key

	// mu is the single-writer region of the document.
	mu            sync.Mutex
	doc           *document.Document
	dirty         bool
	subscriptions []subscription

	// holders is guarded by Registry.mu.
	holders int
}

// Registry owns one document per key.
type Registry struct {
	actorID       time.ActorID
	freshActors   bool
	retainUnsaved bool
	onDestroy     func(k key.Key)
	logger        logging.Logger

	mu      sync.Mutex
	entries map[key.Key]*entry
}

// New creates a new Registry whose documents are edited locally by the given
// replica.
func New(actorID time.ActorID, opts ...Option) *Registry {
	r := &Registry{
		actorID: actorID,
		entries: make(map[key.Key]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.New("registry")
	}
	return r
}

// GetOrCreate returns a handle to the document of the given key, creating it
// if needed. Every handle must be released.
func (r *Registry) GetOrCreate(k key.Key) (*Handle, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("get or create: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		actorID := r.actorID
		if r.freshActors {
			actorID = time.NewActorID()
		}
		e = &entry{
			key: k,
			doc: document.New(k, actorID),
		}
		r.entries[k] = e
		r.logger.Debugf("document created: %s", k)
	}
	e.holders++

	return &Handle{registry: r, entry: e, counted: true}, nil
}

// Lookup returns a handle to an existing document without holding it.
// Releasing the returned handle is a no-op.
func (r *Registry) Lookup(k key.Key) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", k, ErrDocumentNotFound)
	}
	return &Handle{registry: r, entry: e}, nil
}

// Release gives up the given handle. The document is destroyed once it has
// no holders and no unsaved changes. Releasing a handle twice is a no-op.
func (r *Registry) Release(h *Handle) {
	if h == nil || !h.counted {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h.released {
		return
	}
	h.released = true
	h.entry.holders--

	h.entry.mu.Lock()
	dirty := h.entry.dirty
	h.entry.mu.Unlock()

	if h.entry.holders == 0 && !dirty {
		r.destroy(h.entry)
	}
}

// Remove destroys the document of the given key. It fails while the document
// has holders.
func (r *Registry) Remove(k key.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		return fmt.Errorf("remove %s: %w", k, ErrDocumentNotFound)
	}
	if e.holders > 0 {
		return fmt.Errorf("remove %s held %d times: %w", k, e.holders, ErrDocumentInUse)
	}

	r.destroy(e)
	return nil
}

// MarkSaved records that the current state of the document was persisted. A
// document without holders is destroyed.
func (r *Registry) MarkSaved(k key.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[k]
	if !ok {
		return fmt.Errorf("mark saved %s: %w", k, ErrDocumentNotFound)
	}

	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()

	if e.holders == 0 {
		r.destroy(e)
	}
	return nil
}

// Subscribe registers a handler for the deltas of the given document and
// returns the token to unsubscribe with.
func (r *Registry) Subscribe(k key.Key, handler DeltaHandler) (string, error) {
	r.mu.Lock()
	e, ok := r.entries[k]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("subscribe %s: %w", k, ErrDocumentNotFound)
	}

	token := xid.New().String()
	e.mu.Lock()
	e.subscriptions = append(e.subscriptions, subscription{token: token, handler: handler})
	e.mu.Unlock()

	return token, nil
}

// Unsubscribe removes the handler registered with the given token.
func (r *Registry) Unsubscribe(k key.Key, token string) {
	r.mu.Lock()
	e, ok := r.entries[k]
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.subscriptions {
		if sub.token == token {
			e.subscriptions = append(e.subscriptions[:i], e.subscriptions[i+1:]...)
			return
		}
	}
}

// Keys returns the keys of the live documents in ascending order.
func (r *Registry) Keys() []key.Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]key.Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// Len returns the number of live documents.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// destroy must be called with r.mu held.
func (r *Registry) destroy(e *entry) {
	delete(r.entries, e.key)
	r.logger.Debugf("document destroyed: %s", e.key)

	if r.onDestroy != nil {
		r.onDestroy(e.key)
	}
}

// Handle gives access to a document of the registry.
type Handle struct {
	registry *Registry
	entry    *entry
	counted  bool
	released bool
}

// Key returns the key of the document.
func (h *Handle) Key() key.Key {
	return h.entry.key
}

// Edit runs the given local edit inside the document's single-writer region
// and returns the operations it produced.
func (h *Handle) Edit(
	fn func(doc *document.Document) ([]operations.Operation, error),
) ([]operations.Operation, error) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()

	ops, err := fn(h.entry.doc)
	if len(ops) > 0 && h.registry.retainUnsaved {
		h.entry.dirty = true
	}
	return ops, err
}

// ApplyRemote integrates remote operations inside the document's
// single-writer region and delivers the resulting deltas to the subscribers,
// in order, before returning.
func (h *Handle) ApplyRemote(ops ...operations.Operation) ([]crdt.Delta, error) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()

	deltas, err := h.entry.doc.ApplyRemote(ops...)
	if err != nil {
		h.registry.logger.Warnf("apply remote to %s: %v", h.entry.key, err)
	}
	if len(deltas) == 0 {
		return deltas, err
	}

	if h.registry.retainUnsaved {
		h.entry.dirty = true
	}
	for _, sub := range h.entry.subscriptions {
		sub.handler(h.entry.key, deltas)
	}
	return deltas, err
}

// Read runs the given function with the document inside the single-writer
// region. The function must not keep the document.
func (h *Handle) Read(fn func(doc *document.Document)) {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()

	fn(h.entry.doc)
}

// Dirty returns whether the document has changes not yet marked saved.
func (h *Handle) Dirty() bool {
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()

	return h.entry.dirty
}
