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

// Package time provides the logical clock and the ticket that identifies each
// element and operation of a replicated sequence.
package time

import (
	"fmt"
	"strconv"
)

// InitialTicket is the zero value of Ticket. Counters start at one, so it never
// identifies an element and is used where an element reference is absent.
var InitialTicket = Ticket{}

// Ticket identifies an element or operation. It is composed of the counter of
// the replica that created it and the ID of that replica. Tickets are totally
// ordered: counters are compared first, and the actor ID breaks ties between
// replicas that reached the same counter concurrently.
type Ticket struct {
	counter uint64
	actorID ActorID
}

// NewTicket creates an instance of Ticket.
func NewTicket(counter uint64, actorID ActorID) Ticket {
	return Ticket{
		counter: counter,
		actorID: actorID,
	}
}

// Counter returns the counter value.
func (t Ticket) Counter() uint64 {
	return t.counter
}

// ActorID returns the actorID value.
func (t Ticket) ActorID() ActorID {
	return t.actorID
}

// IsInitial returns whether this ticket is the absent reference.
func (t Ticket) IsInitial() bool {
	return t == InitialTicket
}

// Key returns the key string for this Ticket.
func (t Ticket) Key() string {
	return strconv.FormatUint(t.counter, 10) + ":" + t.actorID.String()
}

// ToTestString returns a short string of the ticket for debugging purpose.
func (t Ticket) ToTestString() string {
	return fmt.Sprintf("%d:%s", t.counter, t.actorID.String()[14:16])
}

// After returns whether the given ticket was created later.
func (t Ticket) After(other Ticket) bool {
	return t.Compare(other) > 0
}

// Compare returns an integer comparing two Ticket.
// The result will be 0 if id==other, -1 if id < other, and +1 if id > other.
func (t Ticket) Compare(other Ticket) int {
	if t.counter > other.counter {
		return 1
	} else if t.counter < other.counter {
		return -1
	}

	return t.actorID.Compare(other.actorID)
}
