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
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	gotime "time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/document/key"
)

const (
	writeWait  = 10 * gotime.Second
	pongWait   = 60 * gotime.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 16 << 20
)

// WebSocketOption configures a WebSocketDialer.
type WebSocketOption func(*WebSocketDialer)

// WithLogger sets the logger of the connections.
func WithLogger(logger *zap.Logger) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.logger = logging.Wrap(logger, "transport")
	}
}

// WithQueueSize sets the number of outgoing frames a connection buffers.
func WithQueueSize(size int) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.queueSize = size
	}
}

// WithBackOff sets the reconnection intervals.
func WithBackOff(initial, max gotime.Duration) WebSocketOption {
	return func(d *WebSocketDialer) {
		d.initialInterval = initial
		d.maxInterval = max
	}
}

// WebSocketDialer dials rooms of a relay over websocket.
type WebSocketDialer struct {
	logger          logging.Logger
	dialer          *websocket.Dialer
	queueSize       int
	initialInterval gotime.Duration
	maxInterval     gotime.Duration
}

// NewWebSocketDialer creates a new instance of WebSocketDialer.
func NewWebSocketDialer(opts ...WebSocketOption) *WebSocketDialer {
	d := &WebSocketDialer{
		dialer:          websocket.DefaultDialer,
		queueSize:       DefaultQueueSize,
		initialInterval: DefaultInitialInterval,
		maxInterval:     DefaultMaxInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.New("transport")
	}
	return d
}

// Dial creates a connection to endpoint + "/rooms/" + room. The endpoint may
// use the http or the ws schemes.
func (d *WebSocketDialer) Dial(endpoint string, room key.Key) (Conn, error) {
	if err := room.Validate(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	u, err := url.Parse(strings.TrimSuffix(endpoint, "/") + "/rooms/" + room.String())
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %s: %w", endpoint, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	return &wsConn{
		dialer:  d,
		url:     u.String(),
		room:    room,
		logger:  d.logger.With("room", room.String()),
		closing: make(chan struct{}),
	}, nil
}

type wsConn struct {
	handlers

	dialer *WebSocketDialer
	url    string
	room   key.Key
	logger logging.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	queue   chan []byte
	started bool
	closed  bool

	closing chan struct{}
	wg      sync.WaitGroup
}

func (c *wsConn) Room() key.Key {
	return c.room
}

func (c *wsConn) OnMessage(handler func(data []byte)) {
	c.onMessage = handler
}

func (c *wsConn) OnConnect(handler func()) {
	c.onConnect = handler
}

func (c *wsConn) OnDisconnect(handler func(err error)) {
	c.onDisconnect = handler
}

// Send queues the frame for the writer goroutine. It fails with
// ErrTransportFailure while disconnected or when the queue is full.
func (c *wsConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	if c.queue == nil {
		return fmt.Errorf("send to %s: not connected: %w", c.room, ErrTransportFailure)
	}

	select {
	case c.queue <- data:
		return nil
	default:
		return fmt.Errorf("send to %s: queue full: %w", c.room, ErrTransportFailure)
	}
}

func (c *wsConn) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	if c.started {
		return nil
	}
	c.started = true

	c.wg.Add(1)
	go c.run()
	return nil
}

// Close flushes the queued frames, says goodbye to the relay and stops
// reconnecting.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closing)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// run connects and serves the connection until it is closed, waiting
// between attempts as the backoff policy says.
func (c *wsConn) run() {
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	policy := NewBackOff(c.dialer.initialInterval, c.dialer.maxInterval)
	for {
		conn, _, err := c.dialer.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if !c.wait(policy, err) {
				return
			}
			continue
		}

		policy.Reset()
		if !c.attach(conn) {
			_ = conn.Close()
			return
		}
		c.logger.Debugf("connected to %s", c.url)
		c.connect()

		err = c.serve(conn)
		c.detach()
		c.disconnect(err)

		if !c.wait(policy, err) {
			return
		}
	}
}

// wait sleeps for the next backoff interval. It returns false when the
// connection was closed meanwhile.
func (c *wsConn) wait(policy backoff.BackOff, cause error) bool {
	select {
	case <-c.closing:
		return false
	default:
	}

	interval := policy.NextBackOff()
	c.logger.Warnf("connection to %s lost: %v, retrying in %s", c.url, cause, interval)

	timer := gotime.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-c.closing:
		return false
	case <-timer.C:
		return true
	}
}

func (c *wsConn) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.conn = conn
	c.queue = make(chan []byte, c.dialer.queueSize)
	return true
}

func (c *wsConn) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = nil
	c.queue = nil
}

// serve pumps frames in both directions until the connection fails.
func (c *wsConn) serve(conn *websocket.Conn) error {
	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.write(conn, queue, done)
	}()

	err := c.read(conn)
	close(done)
	_ = conn.Close()
	<-writerDone
	return err
}

func (c *wsConn) read(conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(gotime.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(gotime.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read from %s: %w", c.room, err)
		}
		_ = conn.SetReadDeadline(gotime.Now().Add(pongWait))
		c.message(data)
	}
}

func (c *wsConn) write(conn *websocket.Conn, queue chan []byte, done chan struct{}) {
	ticker := gotime.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-queue:
			_ = conn.SetWriteDeadline(gotime.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warnf("write to %s: %v", c.room, err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(gotime.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		case <-c.closing:
			c.goodbye(conn, queue)
			return
		}
	}
}

// goodbye writes the frames still queued and a close frame, then closes the
// connection so that the reader returns.
func (c *wsConn) goodbye(conn *websocket.Conn, queue chan []byte) {
	defer func() {
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-queue:
			_ = conn.SetWriteDeadline(gotime.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				gotime.Now().Add(writeWait),
			)
			return
		}
	}
}
