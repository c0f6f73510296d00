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
	"fmt"
	"sync"
	gotime "time"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/pkg/awareness"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/errors"
	"github.com/datacanvas/collab/pkg/transport"
)

// ErrNotebookNotJoined is returned when the notebook's awareness room was
// not joined.
var ErrNotebookNotJoined = errors.FailedPrecond("notebook not joined").WithCode("ErrNotebookNotJoined")

// presence is the awareness session of one notebook.
type presence struct {
	notebook key.Key
	tracker  *awareness.Tracker
	conn     transport.Conn
	logger   logging.Logger

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// join returns the awareness session of the given notebook, creating it if
// needed.
func (c *Client) join(notebook key.Key) (*presence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if p, ok := c.presences[notebook]; ok {
		return p, nil
	}

	conn, err := c.dialer.Dial(c.options.Endpoint, notebook)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", notebook, err)
	}

	tracker := awareness.NewTracker(c.id, awareness.WithTimeout(c.options.AwarenessTimeout))
	tracker.SetLocalState(awareness.Fields{Meta: awareness.NewMeta(c.options.DisplayName)})

	p := &presence{
		notebook: notebook,
		tracker:  tracker,
		conn:     conn,
		logger:   c.logger.With("notebook", notebook.String()),
		done:     make(chan struct{}),
	}
	if err := p.start(); err != nil {
		return nil, err
	}

	c.presences[notebook] = p
	return p, nil
}

func (c *Client) presence(notebook key.Key) (*presence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.presences[notebook]
	if !ok {
		return nil, fmt.Errorf("%s: %w", notebook, ErrNotebookNotJoined)
	}
	return p, nil
}

// JoinNotebook joins the awareness room of the given notebook.
func (c *Client) JoinNotebook(notebookID string) error {
	notebook, err := key.ForNotebook(notebookID)
	if err != nil {
		return err
	}
	_, err = c.join(notebook)
	return err
}

// LeaveNotebook tells the collaborators of the notebook that this client
// left and closes its awareness room.
func (c *Client) LeaveNotebook(notebookID string) error {
	notebook, err := key.ForNotebook(notebookID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	p, ok := c.presences[notebook]
	delete(c.presences, notebook)
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("leave %s: %w", notebook, ErrNotebookNotJoined)
	}

	return p.close()
}

// SetActiveCell marks the given cell as the one this client works on.
func (c *Client) SetActiveCell(k key.Key) error {
	if !k.IsCell() {
		return fmt.Errorf("set active cell %s: %w", k, key.ErrInvalidKey)
	}

	p, err := c.join(k.Notebook())
	if err != nil {
		return err
	}

	p.broadcast(p.tracker.UpdateLocalState(func(fields *awareness.Fields) {
		if fields.DocumentKey != k {
			fields.Cursor = nil
		}
		fields.DocumentKey = k
	}))
	return nil
}

// SetCursor publishes this client's selection in the given cell, which
// becomes the active cell.
func (c *Client) SetCursor(k key.Key, anchor, head int) error {
	if !k.IsCell() {
		return fmt.Errorf("set cursor in %s: %w", k, key.ErrInvalidKey)
	}

	p, err := c.join(k.Notebook())
	if err != nil {
		return err
	}

	p.broadcast(p.tracker.UpdateLocalState(func(fields *awareness.Fields) {
		fields.DocumentKey = k
		fields.Cursor = &awareness.Cursor{Anchor: anchor, Head: head}
	}))
	return nil
}

// Peers returns the active states of the notebook of the given key. A cell
// key keeps only the clients working on that cell.
func (c *Client) Peers(k key.Key) ([]awareness.State, error) {
	p, err := c.presence(k.Notebook())
	if err != nil {
		return nil, err
	}

	var filter key.Key
	if k.IsCell() {
		filter = k
	}
	return p.tracker.ActiveStates(filter), nil
}

// ActiveUsers returns the collaborators of the given notebook or cell,
// one entry per display name.
func (c *Client) ActiveUsers(k key.Key) ([]awareness.Meta, error) {
	states, err := c.Peers(k)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var users []awareness.Meta
	for _, state := range states {
		if seen[state.Fields.Meta.Name] {
			continue
		}
		seen[state.Fields.Meta.Name] = true
		users = append(users, state.Fields.Meta)
	}
	return users, nil
}

// SubscribePresence registers a handler of the awareness changes of the
// notebook of the given key.
func (c *Client) SubscribePresence(k key.Key, handler awareness.Handler) (string, error) {
	p, err := c.presence(k.Notebook())
	if err != nil {
		return "", err
	}
	return p.tracker.Subscribe(handler), nil
}

// UnsubscribePresence removes the handler registered with the given token.
func (c *Client) UnsubscribePresence(k key.Key, token string) {
	if p, err := c.presence(k.Notebook()); err == nil {
		p.tracker.Unsubscribe(token)
	}
}

func (p *presence) start() error {
	p.conn.OnConnect(func() {
		p.broadcast(p.tracker.Renew())
	})
	p.conn.OnMessage(p.handleMessage)

	// a newcomer does not know us until our next renewal, so introduce
	// ourselves right away
	p.tracker.Subscribe(func(event awareness.Event) {
		if event.Type == awareness.Added {
			p.broadcast(p.tracker.Renew())
		}
	})

	if err := p.conn.Start(); err != nil {
		return fmt.Errorf("join %s: %w", p.notebook, err)
	}

	p.wg.Add(1)
	go p.renew()
	return nil
}

// renew rebroadcasts the local state every half timeout and expires silent
// peers.
func (p *presence) renew() {
	defer p.wg.Done()

	ticker := gotime.NewTicker(p.tracker.Timeout() / 2)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case now := <-ticker.C:
			p.broadcast(p.tracker.Renew())
			if expired := p.tracker.ExpireStale(now, p.tracker.Timeout()); len(expired) > 0 {
				p.logger.Debugf("expired %v", expired)
			}
		}
	}
}

func (p *presence) handleMessage(data []byte) {
	msg, err := converter.BytesToMessage(data)
	if err != nil {
		p.logger.Warnf("drop frame: %v", err)
		return
	}
	if msg.Type != types.Awareness || msg.Key != p.notebook {
		return
	}

	p.tracker.Apply(msg.AwarenessUpdate())
}

func (p *presence) broadcast(update awareness.Update) {
	data, err := converter.MessageToBytes(types.NewAwareness(p.notebook, update))
	if err != nil {
		p.logger.Errorf("encode awareness: %v", err)
		return
	}
	if err := p.conn.Send(data); err != nil {
		p.logger.Debugf("send awareness: %v", err)
	}
}

// close broadcasts the leave and closes the room.
func (p *presence) close() error {
	var err error
	p.closeOnce.Do(func() {
		p.broadcast(p.tracker.Leave())
		close(p.done)
		p.wg.Wait()
		err = p.conn.Close()
	})
	return err
}
