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


// Package housekeeping provides the housekeeping service. The housekeeping
// service periodically runs the registered tasks, such as saving the
// snapshots of the open rooms.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/datacanvas/collab/internal/logging"
)

// Task is a unit of work run on every housekeeping tick.
type Task func(ctx context.Context) error

type task struct {
	name string
	fn   Task
}

// Housekeeping is the housekeeping service. It periodically runs the
// registered tasks one after another.
type Housekeeping struct {
	interval time.Duration
	timeout  time.Duration

	mu    sync.Mutex
	tasks []task

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a new housekeeping instance.
func New(conf *Config) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}
	timeout, err := conf.ParseTaskTimeout()
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(logging.With(context.Background(), logging.New("HSKP")))

	return &Housekeeping{
		interval:   interval,
		timeout:    timeout,
		ctx:        ctx,
		cancelFunc: cancelFunc,
	}, nil
}

// RegisterTask adds a task that runs on every tick after it is registered.
func (h *Housekeeping) RegisterTask(name string, fn Task) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tasks = append(h.tasks, task{name: name, fn: fn})
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	h.wg.Add(1)
	go h.run()
	return nil
}

// Stop stops the housekeeping service and waits for the running tick.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()
	h.wg.Wait()

	return nil
}

// run is the housekeeping loop.
func (h *Housekeeping) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.tick()
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Housekeeping) tick() {
	h.mu.Lock()
	tasks := append([]task(nil), h.tasks...)
	h.mu.Unlock()

	for _, t := range tasks {
		if h.ctx.Err() != nil {
			return
		}
		h.runTask(t)
	}
}

func (h *Housekeeping) runTask(t task) {
	ctx := h.ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := t.fn(ctx); err != nil {
		logging.From(ctx).Error(fmt.Errorf("HSKP: %s: %w", t.name, err))
		return
	}

	logging.From(ctx).Debugf("HSKP: %s, %s", t.name, time.Since(start))
}
