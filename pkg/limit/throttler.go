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

// Package limit provides event timing control components.
package limit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttler coalesces bursts of calls. The first call of a burst runs
// immediately if the rate limiter allows it; calls inside the window collapse
// into a single trailing call once the next token is available, so the last
// event of a burst is never lost.
type Throttler struct {
	lim *rate.Limiter

	mu      sync.Mutex
	pending *time.Timer
	stopped bool
}

// New creates a new instance with the specified throttle window.
func New(window time.Duration) *Throttler {
	return &Throttler{
		lim: rate.NewLimiter(rate.Every(window), 1),
	}
}

// ExecuteOrSchedule runs the callback now if the limiter allows it, and
// otherwise schedules one trailing run. If a trailing run is already
// scheduled it returns without scheduling another.
func (t *Throttler) ExecuteOrSchedule(callback func()) {
	t.mu.Lock()
	if t.stopped || t.pending != nil {
		t.mu.Unlock()
		return
	}

	if t.lim.Allow() {
		t.mu.Unlock()
		callback()
		return
	}

	delay := t.lim.Reserve().Delay()
	t.pending = time.AfterFunc(delay, func() {
		t.mu.Lock()
		t.pending = nil
		stopped := t.stopped
		t.mu.Unlock()

		if !stopped {
			callback()
		}
	})
	t.mu.Unlock()
}

// Stop cancels a scheduled trailing run. Later calls are ignored.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
