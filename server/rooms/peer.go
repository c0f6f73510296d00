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
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"

	"github.com/datacanvas/collab/internal/logging"
	pkgtime "github.com/datacanvas/collab/pkg/document/time"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// peer is one websocket connection joined to a room. Frames are written by
// a single writer goroutine from the send queue.
type peer struct {
	id     string
	conn   *websocket.Conn
	logger logging.Logger

	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}

	// presences are the awareness clients seen on this connection and
	// their latest clocks.
	mu        sync.Mutex
	presences map[pkgtime.ActorID]uint64
}

func newPeer(conn *websocket.Conn, queueSize int, logger logging.Logger) *peer {
	id := xid.New().String()
	return &peer{
		id:        id,
		conn:      conn,
		logger:    logger.With("peer", id),
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
		presences: make(map[pkgtime.ActorID]uint64),
	}
}

// enqueue queues the frame without blocking. A peer whose queue is full is
// closed since it can no longer be kept consistent.
func (p *peer) enqueue(data []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.send <- data:
		return true
	default:
		p.logger.Warnf("queue full, dropping peer")
		p.close()
		return false
	}
}

// close stops the writer. The reader stops when the connection is closed
// by the writer.
func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// seen records the awareness clock of a client using this connection. A
// nil fields update means the client left on its own.
func (p *peer) seen(clientID pkgtime.ActorID, clock uint64, left bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if left {
		delete(p.presences, clientID)
		return
	}
	if clock > p.presences[clientID] {
		p.presences[clientID] = clock
	}
}

// departed returns the awareness clients that did not leave on their own.
func (p *peer) departed() map[pkgtime.ActorID]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	presences := make(map[pkgtime.ActorID]uint64, len(p.presences))
	for id, clock := range p.presences {
		presences[id] = clock
	}
	return presences
}

// readPump reads frames until the connection fails and passes them to the
// handler.
func (p *peer) readPump(maxFrameSize int64, handler func(data []byte)) {
	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Debugf("read: %v", err)
			}
			return
		}
		handler(data)
	}
}

// writePump writes queued frames and pings until the peer is closed. It
// owns closing the connection.
func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.logger.Debugf("write: %v", err)
				p.close()
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				p.close()
				return
			}
		case <-p.done:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			return
		}
	}
}
