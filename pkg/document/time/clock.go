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

package time

// Clock allocates tickets for a single replica. Each call to Next returns a
// ticket whose counter is exactly one greater than the previous one, so the
// counters of a replica have no gaps. A Clock is not safe for concurrent use;
// it is owned by the document it stamps.
type Clock struct {
	actorID ActorID
	counter uint64
}

// NewClock creates a new Clock for the given replica.
func NewClock(actorID ActorID) *Clock {
	return &Clock{actorID: actorID}
}

// ActorID returns the replica this clock allocates for.
func (c *Clock) ActorID() ActorID {
	return c.actorID
}

// Counter returns the last allocated counter.
func (c *Clock) Counter() uint64 {
	return c.counter
}

// Next allocates the next ticket of this replica.
func (c *Clock) Next() Ticket {
	c.counter++
	return NewTicket(c.counter, c.actorID)
}

// Observe moves the clock forward to the given counter. It is used when ops
// created by this same replica come back from a snapshot.
func (c *Clock) Observe(counter uint64) {
	if counter > c.counter {
		c.counter = counter
	}
}
