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


// Package transport provides the connections replicas use to reach a room.
package transport

import (
	gotime "time"

	"github.com/cenkalti/backoff"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/errors"
)

const (
	// DefaultInitialInterval is the first delay before reconnecting.
	DefaultInitialInterval = gotime.Second

	// DefaultMaxInterval caps the delay between reconnection attempts.
	DefaultMaxInterval = 30 * gotime.Second

	// DefaultQueueSize is the number of outgoing frames a connection buffers.
	DefaultQueueSize = 256
)

var (
	// ErrTransportFailure is returned when a frame cannot be handed to the
	// network, either because the connection is down or its queue is full.
	ErrTransportFailure = errors.Unavailable("transport failure").WithCode("ErrTransportFailure")

	// ErrConnClosed is returned when a closed connection is used.
	ErrConnClosed = errors.FailedPrecond("connection closed").WithCode("ErrConnClosed")
)

// Dialer creates connections to rooms.
type Dialer interface {
	// Dial creates a connection to the given room of the endpoint. The
	// connection does not reach the network until Start is called.
	Dial(endpoint string, room key.Key) (Conn, error)
}

// Conn is a connection to a room that reconnects by itself. Handlers must be
// registered before Start and are called from the connection's goroutines.
type Conn interface {
	// Room returns the room this connection belongs to.
	Room() key.Key

	// Send hands the frame to the network without blocking.
	Send(data []byte) error

	// OnMessage registers the handler of incoming frames.
	OnMessage(handler func(data []byte))

	// OnConnect registers the handler called after each (re)connection.
	OnConnect(handler func())

	// OnDisconnect registers the handler called when the connection drops.
	OnDisconnect(handler func(err error))

	// Start begins connecting.
	Start() error

	// Close closes the connection and stops reconnecting.
	Close() error
}

// NewBackOff returns the exponential policy used between reconnection
// attempts. It never gives up and does not jitter: the first delay is
// exactly initial.
func NewBackOff(initial, max gotime.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

type handlers struct {
	onMessage    func(data []byte)
	onConnect    func()
	onDisconnect func(err error)
}

func (h *handlers) message(data []byte) {
	if h.onMessage != nil {
		h.onMessage(data)
	}
}

func (h *handlers) connect() {
	if h.onConnect != nil {
		h.onConnect()
	}
}

func (h *handlers) disconnect(err error) {
	if h.onDisconnect != nil {
		h.onDisconnect(err)
	}
}
