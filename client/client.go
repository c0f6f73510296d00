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


// Package client is the replica side of the collaboration core. A Client
// attaches cell documents, keeps them in sync with their rooms and tracks
// the presence of collaborators per notebook.
package client

import (
	"context"
	goerrors "errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
	"github.com/datacanvas/collab/pkg/registry"
	"github.com/datacanvas/collab/pkg/transport"
)

var (
	// ErrClientClosed is returned when a closed client is used.
	ErrClientClosed = errors.FailedPrecond("client closed").WithCode("ErrClientClosed")

	// ErrDocumentNotAttached is returned when the document is not attached.
	ErrDocumentNotAttached = errors.FailedPrecond("document not attached").WithCode("ErrDocumentNotAttached")

	// ErrDocumentAlreadyAttached is returned when the document is attached
	// already.
	ErrDocumentAlreadyAttached = errors.FailedPrecond("document already attached").WithCode("ErrDocumentAlreadyAttached")
)

// detached is a document the client keeps between two attachments.
type detached struct {
	handle *registry.Handle
	outbox []operations.Operation
}

// Client is a replica that synchronizes cell documents with their rooms.
type Client struct {
	id       time.ActorID
	options  Options
	logger   logging.Logger
	dialer   transport.Dialer
	registry *registry.Registry

	mu        sync.Mutex
	closed    bool
	sessions  map[key.Key]*attachment
	detached  map[key.Key]*detached
	presences map[key.Key]*presence
}

type attachment struct {
	session *Session
	handle  *registry.Handle
}

// New creates an instance of Client.
func New(opts ...Option) (*Client, error) {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Key == "" {
		options.Key = uuid.New().String()
	}
	options.ensureDefaultValue()

	id := time.NewActorID()
	logger := logging.Wrap(options.Logger, "client", logging.NewField("client", options.Key))

	dialer := options.Dialer
	if dialer == nil {
		dialer = transport.NewWebSocketDialer(transport.WithLogger(options.Logger))
	}

	return &Client{
		id:        id,
		options:   options,
		logger:    logger,
		dialer:    dialer,
		registry:  registry.New(id, registry.WithFreshActors(), registry.WithLogger(logger)),
		sessions:  make(map[key.Key]*attachment),
		detached:  make(map[key.Key]*detached),
		presences: make(map[key.Key]*presence),
	}, nil
}

// ID returns the id of this client. It identifies the client in awareness.
func (c *Client) ID() time.ActorID {
	return c.id
}

// Key returns the key of this client.
func (c *Client) Key() string {
	return c.options.Key
}

// Attach connects the document of the given key to its room and joins the
// notebook's awareness room.
func (c *Client) Attach(ctx context.Context, k key.Key, opts ...AttachOption) (*Session, error) {
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	if !k.IsCell() {
		return nil, fmt.Errorf("attach %s: not a cell: %w", k, key.ErrInvalidKey)
	}

	options := attachOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if _, ok := c.sessions[k]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("attach %s: %w", k, ErrDocumentAlreadyAttached)
	}

	var handle *registry.Handle
	var outbox []operations.Operation
	if d, ok := c.detached[k]; ok {
		delete(c.detached, k)
		handle, outbox = d.handle, d.outbox
	} else {
		h, err := c.registry.GetOrCreate(k)
		if err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("attach: %w", err)
		}
		handle = h
	}

	conn, err := c.dialer.Dial(c.options.Endpoint, k)
	if err != nil {
		c.registry.Release(handle)
		c.mu.Unlock()
		return nil, fmt.Errorf("attach %s: %w", k, err)
	}

	session := newSession(sessionConfig{
		clientID:    c.id,
		handle:      handle,
		conn:        conn,
		logger:      c.logger,
		debounce:    c.options.Debounce,
		syncInitial: c.options.SyncInitialInterval,
		syncMax:     c.options.SyncMaxInterval,
		outbox:      outbox,
	})
	c.sessions[k] = &attachment{session: session, handle: handle}
	c.mu.Unlock()

	if err := session.start(); err != nil {
		c.drop(k)
		return nil, err
	}

	if _, err := c.join(k.Notebook()); err != nil {
		c.logger.Warnf("join %s: %v", k.Notebook(), err)
	}

	if options.initialContent != "" {
		if err := session.WaitSynced(ctx); err != nil {
			c.logger.Infof("%s not synced, seeding offline: %v", k, err)
		}
		if err := session.seed(options.initialContent); err != nil {
			return session, fmt.Errorf("seed %s: %w", k, err)
		}
	}

	return session, nil
}

// drop forgets a session whose start failed.
func (c *Client) drop(k key.Key) {
	c.mu.Lock()
	a, ok := c.sessions[k]
	delete(c.sessions, k)
	c.mu.Unlock()

	if ok {
		_ = a.session.Close(true)
		c.registry.Release(a.handle)
	}
}

// Detach disconnects the document of the given key. Unless destroy is set,
// the client keeps the document and its unsent edits for a later Attach.
func (c *Client) Detach(k key.Key, destroy bool) error {
	c.mu.Lock()
	a, ok := c.sessions[k]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("detach %s: %w", k, ErrDocumentNotAttached)
	}
	delete(c.sessions, k)
	c.mu.Unlock()

	err := a.session.Close(destroy)

	if destroy {
		c.registry.Release(a.handle)
		return err
	}

	c.mu.Lock()
	c.detached[k] = &detached{handle: a.handle, outbox: a.session.takeOutbox()}
	c.mu.Unlock()
	return err
}

// Session returns the session of the given document.
func (c *Client) Session(k key.Key) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.sessions[k]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", k, ErrDocumentNotAttached)
	}
	return a.session, nil
}

// Edit applies a local edit to an attached document.
func (c *Client) Edit(k key.Key, op EditOp) error {
	session, err := c.Session(k)
	if err != nil {
		return err
	}
	return session.Edit(op)
}

// Content returns the visible content of a document held by this client.
func (c *Client) Content(k key.Key) (string, error) {
	handle, err := c.registry.Lookup(k)
	if err != nil {
		return "", err
	}

	var content string
	handle.Read(func(doc *document.Document) {
		content = doc.Content()
	})
	return content, nil
}

// Subscribe registers a handler of the remote changes of a document held by
// this client.
func (c *Client) Subscribe(k key.Key, handler registry.DeltaHandler) (string, error) {
	return c.registry.Subscribe(k, handler)
}

// Unsubscribe removes the handler registered with the given token.
func (c *Client) Unsubscribe(k key.Key, token string) {
	c.registry.Unsubscribe(k, token)
}

// Snapshot encodes a document held by this client for persistence.
func (c *Client) Snapshot(k key.Key) ([]byte, error) {
	handle, err := c.registry.Lookup(k)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	var bytes []byte
	handle.Read(func(doc *document.Document) {
		bytes, err = converter.SnapshotToBytes(converter.ToSnapshot(doc.Key(), doc.VersionVector(), doc.Ops()))
	})
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// Restore replays a snapshot into the document of the given key. A document
// not held yet is kept detached, ready to be attached.
func (c *Client) Restore(k key.Key, data []byte) error {
	snapshot, err := converter.BytesToSnapshot(data)
	if err != nil {
		return fmt.Errorf("restore %s: %w", k, err)
	}
	if snapshot.Key != k {
		return fmt.Errorf("restore %s from snapshot of %s: %w", k, snapshot.Key, key.ErrInvalidKey)
	}
	ops, err := converter.FromOperations(snapshot.Ops)
	if err != nil {
		return fmt.Errorf("restore %s: %w", k, err)
	}

	handle, err := c.holdForRestore(k)
	if err != nil {
		return err
	}

	if _, err := handle.ApplyRemote(ops...); err != nil {
		return fmt.Errorf("restore %s: %w", k, err)
	}
	return nil
}

func (c *Client) holdForRestore(k key.Key) (*registry.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if a, ok := c.sessions[k]; ok {
		return a.handle, nil
	}
	if d, ok := c.detached[k]; ok {
		return d.handle, nil
	}

	handle, err := c.registry.GetOrCreate(k)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	c.detached[k] = &detached{handle: handle}
	return handle, nil
}

// Close detaches every document and leaves every notebook.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sessions := c.sessions
	detachedDocs := c.detached
	presences := c.presences
	c.sessions = make(map[key.Key]*attachment)
	c.detached = make(map[key.Key]*detached)
	c.presences = make(map[key.Key]*presence)
	c.mu.Unlock()

	var errs []error
	for _, a := range sessions {
		if err := a.session.Close(true); err != nil {
			errs = append(errs, err)
		}
		c.registry.Release(a.handle)
	}
	for _, d := range detachedDocs {
		c.registry.Release(d.handle)
	}
	for _, p := range presences {
		if err := p.close(); err != nil {
			errs = append(errs, err)
		}
	}

	return goerrors.Join(errs...)
}
