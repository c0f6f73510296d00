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
	"fmt"

	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/time"
)

// Delete is an operation representing tombstoning an element of a Sequence.
type Delete struct {
	// id is the ticket allocated for the delete itself.
	id time.Ticket

	// target is the id of the element to tombstone.
	target time.Ticket
}

// NewDelete creates a new instance of Delete.
func NewDelete(id, target time.Ticket) *Delete {
	return &Delete{
		id:     id,
		target: target,
	}
}

// ID returns the id of this operation.
func (o *Delete) ID() time.Ticket {
	return o.id
}

// Target returns the id of the deleted element.
func (o *Delete) Target() time.Ticket {
	return o.target
}

// Dependencies returns the deleted element.
func (o *Delete) Dependencies() []time.Ticket {
	return []time.Ticket{o.target}
}

// Validate checks that the operation is well-formed.
func (o *Delete) Validate() error {
	if err := validateID(o.id); err != nil {
		return err
	}
	if o.target.IsInitial() {
		return fmt.Errorf("delete %s has no target: %w", o.id.Key(), ErrMalformedOperation)
	}
	return validateReference(o.id, o.target, "target")
}

// Execute tombstones the target in the given sequence.
func (o *Delete) Execute(seq *crdt.Sequence) (*crdt.Delta, error) {
	delta, err := seq.Remove(o.target)
	if err != nil {
		return nil, fmt.Errorf("execute delete %s: %w", o.id.Key(), err)
	}
	return delta, nil
}
