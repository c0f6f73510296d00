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


package operations

import (
	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/time"
)

// Skip takes the place of an operation that could not be applied. It uses up
// the counter of that operation so that the later operations of the same
// replica are not held back, and it leaves the sequence unchanged.
type Skip struct {
	id time.Ticket
}

// NewSkip creates a new instance of Skip.
func NewSkip(id time.Ticket) *Skip {
	return &Skip{id: id}
}

// ID returns the id of the skipped operation.
func (o *Skip) ID() time.Ticket {
	return o.id
}

// Dependencies returns nothing; a skip never waits for elements.
func (o *Skip) Dependencies() []time.Ticket {
	return nil
}

// Validate checks that the id can take a place in the replica's counters.
func (o *Skip) Validate() error {
	return validateID(o.id)
}

// Execute does nothing.
func (o *Skip) Execute(_ *crdt.Sequence) (*crdt.Delta, error) {
	return nil, nil
}
