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
	gotime "time"

	"go.uber.org/zap"

	"github.com/datacanvas/collab/pkg/awareness"
	"github.com/datacanvas/collab/pkg/transport"
)

const (
	// DefaultEndpoint is the relay the client connects to by default.
	DefaultEndpoint = "ws://localhost:8080"

	// DefaultDebounce is the window in which local edits are coalesced into
	// one update.
	DefaultDebounce = 50 * gotime.Millisecond
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// Key is the key of the client. It is used to identify the client.
	Key string

	// Logger is the Logger of the client.
	Logger *zap.Logger

	// Dialer creates the connections to rooms. Defaults to websocket.
	Dialer transport.Dialer

	// Endpoint is the address of the relay.
	Endpoint string

	// Debounce is the coalescing window of local edits.
	Debounce gotime.Duration

	// AwarenessTimeout is the duration after which a silent peer is
	// considered gone.
	AwarenessTimeout gotime.Duration

	// DisplayName is the name shown to the other collaborators.
	DisplayName string

	// SyncInitialInterval and SyncMaxInterval bound the delay between
	// unanswered sync-requests.
	SyncInitialInterval gotime.Duration
	SyncMaxInterval     gotime.Duration
}

// WithKey configures the key of the client.
func WithKey(key string) Option {
	return func(o *Options) { o.Key = key }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithDialer configures the dialer of the client.
func WithDialer(dialer transport.Dialer) Option {
	return func(o *Options) { o.Dialer = dialer }
}

// WithEndpoint configures the relay endpoint of the client.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) { o.Endpoint = endpoint }
}

// WithDebounce configures the coalescing window of local edits.
func WithDebounce(debounce gotime.Duration) Option {
	return func(o *Options) { o.Debounce = debounce }
}

// WithAwarenessTimeout configures when silent peers expire.
func WithAwarenessTimeout(timeout gotime.Duration) Option {
	return func(o *Options) { o.AwarenessTimeout = timeout }
}

// WithDisplayName configures the name shown to the other collaborators.
func WithDisplayName(name string) Option {
	return func(o *Options) { o.DisplayName = name }
}

// WithSyncBackOff configures the delays between unanswered sync-requests.
func WithSyncBackOff(initial, max gotime.Duration) Option {
	return func(o *Options) {
		o.SyncInitialInterval = initial
		o.SyncMaxInterval = max
	}
}

func (o *Options) ensureDefaultValue() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.AwarenessTimeout == 0 {
		o.AwarenessTimeout = awareness.DefaultTimeout
	}
	if o.SyncInitialInterval == 0 {
		o.SyncInitialInterval = transport.DefaultInitialInterval
	}
	if o.SyncMaxInterval == 0 {
		o.SyncMaxInterval = transport.DefaultMaxInterval
	}
	if o.DisplayName == "" {
		o.DisplayName = o.Key
	}
}

// AttachOption configures how a document is attached.
type AttachOption func(*attachOptions)

type attachOptions struct {
	initialContent string
}

// WithInitialContent seeds the document with the given content when it is
// still empty after the first handshake, or when the handshake does not
// complete before the context of Attach is done.
func WithInitialContent(content string) AttachOption {
	return func(o *attachOptions) { o.initialContent = content }
}
