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


package client

import (
	"context"
	"fmt"
	"sync"
	gotime "time"

	"github.com/cenkalti/backoff"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
	"github.com/datacanvas/collab/pkg/limit"
	"github.com/datacanvas/collab/pkg/registry"
	"github.com/datacanvas/collab/pkg/transport"
)

// ErrSessionClosed is returned when a closed session is used.
var ErrSessionClosed = errors.FailedPrecond("session closed").WithCode("ErrSessionClosed")

// SessionStatus represents the status of a Session.
type SessionStatus string

const (
	// StatusHandshaking means the session is connected and waits for the
	// answer to its sync-request.
	StatusHandshaking SessionStatus = "handshaking"

	// StatusSyncing means the session is applying a sync-response.
	StatusSyncing SessionStatus = "syncing"

	// StatusLive means the session is in sync and exchanges updates.
	StatusLive SessionStatus = "live"

	// StatusDisconnected means the transport is down. Local edits wait in the
	// outbox.
	StatusDisconnected SessionStatus = "disconnected"

	// StatusClosed means the session was closed.
	StatusClosed SessionStatus = "closed"
)

// Session synchronizes one document with its room.
//
// The transport calls the session from its own goroutine. The session never
// holds its mutex while entering the document's single-writer region.
type Session struct {
	key       key.Key
	clientID  time.ActorID
	handle    *registry.Handle
	conn      transport.Conn
	logger    logging.Logger
	throttler *limit.Throttler

	mu        sync.Mutex
	status    SessionStatus
	outbox    []operations.Operation
	destroyed bool
	policy    backoff.BackOff
	retry     *gotime.Timer
	synced    chan struct{}
	syncedAt  gotime.Time
}

type sessionConfig struct {
	clientID    time.ActorID
	handle      *registry.Handle
	conn        transport.Conn
	logger      logging.Logger
	debounce    gotime.Duration
	syncInitial gotime.Duration
	syncMax     gotime.Duration
	outbox      []operations.Operation
}

func newSession(cfg sessionConfig) *Session {
	return &Session{
		key:       cfg.handle.Key(),
		clientID:  cfg.clientID,
		handle:    cfg.handle,
		conn:      cfg.conn,
		logger:    cfg.logger.With("key", cfg.handle.Key().String()),
		throttler: limit.New(cfg.debounce),
		status:    StatusDisconnected,
		outbox:    cfg.outbox,
		policy:    transport.NewBackOff(cfg.syncInitial, cfg.syncMax),
		synced:    make(chan struct{}),
	}
}

// start registers the transport handlers and starts connecting.
func (s *Session) start() error {
	s.conn.OnConnect(s.handleConnect)
	s.conn.OnDisconnect(s.handleDisconnect)
	s.conn.OnMessage(s.handleMessage)

	if err := s.conn.Start(); err != nil {
		return fmt.Errorf("start session %s: %w", s.key, err)
	}
	return nil
}

// Key returns the key of the document.
func (s *Session) Key() key.Key {
	return s.key
}

// Status returns the current status.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Outbox returns the number of local operations not yet handed to the
// transport.
func (s *Session) Outbox() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.outbox)
}

// WaitSynced blocks until the first handshake completes or the context is
// done.
func (s *Session) WaitSynced(ctx context.Context) error {
	select {
	case <-s.synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Edit applies a local edit and schedules its broadcast.
func (s *Session) Edit(op EditOp) error {
	if s.Status() == StatusClosed {
		return fmt.Errorf("edit %s: %w", s.key, ErrSessionClosed)
	}

	ops, err := s.handle.Edit(op.apply)
	s.push(ops)
	if err != nil {
		return fmt.Errorf("edit %s: %w", s.key, err)
	}
	return nil
}

// seed inserts the given content if nothing was ever integrated into the
// document.
func (s *Session) seed(content string) error {
	ops, err := s.handle.Edit(func(doc *document.Document) ([]operations.Operation, error) {
		if !doc.IsEmpty() {
			return nil, nil
		}
		return doc.InsertText(0, content)
	})
	s.push(ops)
	return err
}

// Close closes the session. Unless destroy is set, the outbox is kept so it
// can be handed to the next session of the document.
func (s *Session) Close(destroy bool) error {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusClosed
	if destroy {
		s.outbox = nil
		s.destroyed = true
	}
	s.stopRetry()
	s.mu.Unlock()

	s.throttler.Stop()
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("close session %s: %w", s.key, err)
	}
	return nil
}

// takeOutbox returns the operations left in the outbox of a closed session.
func (s *Session) takeOutbox() []operations.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := s.outbox
	s.outbox = nil
	return ops
}

func (s *Session) push(ops []operations.Operation) {
	if len(ops) == 0 {
		return
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.outbox = append(s.outbox, ops...)
	live := s.status == StatusLive
	s.mu.Unlock()

	if live {
		s.throttler.ExecuteOrSchedule(s.flush)
	}
}

// flush sends the outbox as one update. Until the session is live the
// handshake decides what the peer still needs. The operations go back to the
// outbox if the transport refuses them.
func (s *Session) flush() {
	s.mu.Lock()
	if s.status != StatusLive || len(s.outbox) == 0 {
		s.mu.Unlock()
		return
	}
	ops := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	if err := s.send(converter.ToUpdate(s.key, ops)); err != nil {
		s.mu.Lock()
		if !s.destroyed {
			s.outbox = append(ops, s.outbox...)
		}
		s.mu.Unlock()

		if errors.IsRetryable(err) {
			s.throttler.ExecuteOrSchedule(s.flush)
		}
	}
}

// prune drops the operations of the outbox that the vector covers. It must
// be called with s.mu held.
func (s *Session) prune(vector time.VersionVector) {
	kept := make([]operations.Operation, 0, len(s.outbox))
	for _, op := range s.outbox {
		if !vector.Covers(op.ID()) {
			kept = append(kept, op)
		}
	}
	s.outbox = kept
}

func (s *Session) handleConnect() {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return
	}
	s.status = StatusHandshaking
	s.policy.Reset()
	s.mu.Unlock()

	s.logger.Debugf("connected, handshaking")
	s.requestSync()
}

func (s *Session) handleDisconnect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return
	}
	s.status = StatusDisconnected
	s.stopRetry()
	s.logger.Infof("disconnected with %d ops in outbox: %v", len(s.outbox), err)
}

func (s *Session) handleMessage(data []byte) {
	msg, err := converter.BytesToMessage(data)
	if err != nil {
		s.logger.Warnf("drop frame: %v", err)
		return
	}
	if msg.Key != s.key {
		s.logger.Debugf("drop frame of %s", msg.Key)
		return
	}

	switch msg.Type {
	case types.SyncRequest:
		s.answerSync(msg)
	case types.SyncResponse:
		s.completeSync(msg)
	case types.Update:
		s.apply(msg.Ops)
	}
}

// requestSync sends our state vector and, while handshaking, schedules a
// retry in case nobody answers.
func (s *Session) requestSync() {
	var vector time.VersionVector
	s.handle.Read(func(doc *document.Document) {
		vector = doc.VersionVector()
	})

	msg := types.NewSyncRequest(s.key, vector)
	msg.ClientID = s.clientID
	_ = s.send(msg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusHandshaking {
		return
	}
	s.stopRetry()
	s.retry = gotime.AfterFunc(s.policy.NextBackOff(), s.retrySync)
}

func (s *Session) retrySync() {
	if s.Status() != StatusHandshaking {
		return
	}
	s.logger.Debugf("no sync-response yet, retrying")
	s.requestSync()
}

// stopRetry must be called with s.mu held.
func (s *Session) stopRetry() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}

// answerSync replies to a peer's sync-request with what the peer is missing
// and our state vector. The reply covers the outbox up to that vector. If
// the peer knows operations we lack, or we are still waiting for our own
// handshake, we ask back.
func (s *Session) answerSync(msg *types.Message) {
	if msg.ClientID == s.clientID {
		return
	}

	var ops []operations.Operation
	var vector time.VersionVector
	s.handle.Read(func(doc *document.Document) {
		ops = doc.OpsSince(msg.StateVector)
		vector = doc.VersionVector()
	})

	resp := converter.ToSyncResponse(s.key, ops)
	resp.ClientID = msg.ClientID
	resp.StateVector = vector
	if err := s.send(resp); err != nil {
		return
	}

	// edits made after the read are not in the reply and stay queued
	s.mu.Lock()
	s.prune(vector)
	handshaking := s.status == StatusHandshaking
	s.mu.Unlock()

	if handshaking || !vector.AfterOrEqual(msg.StateVector) {
		s.requestSync()
	}
}

// completeSync applies a sync-response. Responses addressed to another
// client are applied like updates. Only the part of the outbox that the
// responder's vector lacks is sent afterwards.
func (s *Session) completeSync(msg *types.Message) {
	if msg.ClientID != time.InitialActorID && msg.ClientID != s.clientID {
		s.apply(msg.Ops)
		return
	}

	s.mu.Lock()
	if s.status == StatusHandshaking {
		s.status = StatusSyncing
	}
	s.mu.Unlock()

	s.apply(msg.Ops)

	s.mu.Lock()
	if s.status != StatusSyncing {
		s.mu.Unlock()
		return
	}
	s.status = StatusLive
	s.stopRetry()
	if s.syncedAt.IsZero() {
		s.syncedAt = gotime.Now()
		close(s.synced)
	}
	s.prune(msg.StateVector)
	s.mu.Unlock()

	s.logger.Debugf("live")
	s.throttler.ExecuteOrSchedule(s.flush)
}

func (s *Session) apply(wireOps []types.Operation) {
	if len(wireOps) == 0 {
		return
	}

	ops, err := converter.FromOperations(wireOps)
	if err != nil {
		s.logger.Warnf("skip operations: %v", err)
	}

	// the registry logs malformed operations, the rest are applied
	_, _ = s.handle.ApplyRemote(ops...)
}

func (s *Session) send(msg *types.Message) error {
	data, err := converter.MessageToBytes(msg)
	if err != nil {
		s.logger.Errorf("encode %s: %v", msg.Type, err)
		return err
	}

	if err := s.conn.Send(data); err != nil {
		s.logger.Warnf("send %s: %v", msg.Type, err)
		return err
	}
	return nil
}
