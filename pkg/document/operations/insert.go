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

// Insert is an operation representing inserting an element into a Sequence.
type Insert struct {
	// id is the id of the operation and of the element it creates.
	id time.Ticket

	// value is the content of the element.
	value string

	// originLeft and originRight are the elements that were adjacent to the
	// insertion point when the operation was created.
	originLeft  time.Ticket
	originRight time.Ticket
}

// NewInsert creates a new instance of Insert.
func NewInsert(id time.Ticket, value string, originLeft, originRight time.Ticket) *Insert {
	return &Insert{
		id:          id,
		value:       value,
		originLeft:  originLeft,
		originRight: originRight,
	}
}

// FromElement creates the Insert that reproduces the given element.
func FromElement(elem *crdt.Element) *Insert {
	return NewInsert(elem.ID(), elem.Value(), elem.OriginLeft(), elem.OriginRight())
}

// ID returns the id of this operation.
func (o *Insert) ID() time.Ticket {
	return o.id
}

// Value returns the value of the inserted element.
func (o *Insert) Value() string {
	return o.value
}

// OriginLeft returns the element that preceded the insertion point.
func (o *Insert) OriginLeft() time.Ticket {
	return o.originLeft
}

// OriginRight returns the element that followed the insertion point.
func (o *Insert) OriginRight() time.Ticket {
	return o.originRight
}

// Dependencies returns the origins of the inserted element.
func (o *Insert) Dependencies() []time.Ticket {
	var deps []time.Ticket
	if !o.originLeft.IsInitial() {
		deps = append(deps, o.originLeft)
	}
	if !o.originRight.IsInitial() {
		deps = append(deps, o.originRight)
	}
	return deps
}

// Validate checks that the operation is well-formed.
func (o *Insert) Validate() error {
	if err := validateID(o.id); err != nil {
		return err
	}
	if o.value == "" {
		return fmt.Errorf("insert %s has empty value: %w", o.id.Key(), ErrMalformedOperation)
	}
	if !o.originLeft.IsInitial() && o.originLeft == o.originRight {
		return fmt.Errorf("insert %s has equal origins: %w", o.id.Key(), ErrMalformedOperation)
	}
	if err := validateReference(o.id, o.originLeft, "origin left"); err != nil {
		return err
	}
	if err := validateReference(o.id, o.originRight, "origin right"); err != nil {
		return err
	}
	return nil
}

// Execute integrates the element into the given sequence.
func (o *Insert) Execute(seq *crdt.Sequence) (*crdt.Delta, error) {
	delta, err := seq.Integrate(crdt.NewElement(o.id, o.value, o.originLeft, o.originRight))
	if err != nil {
		return nil, fmt.Errorf("execute insert %s: %w", o.id.Key(), err)
	}
	return delta, nil
}
