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

// Package operations implements the operations that replicas exchange to
// edit a sequence.
package operations

import (
	"fmt"

	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
)

// ErrMalformedOperation is returned for an operation that can never be
// applied, whatever else the replica receives later.
var ErrMalformedOperation = errors.InvalidArgument("malformed operation").WithCode("ErrMalformedOperation")

// Operation represents an operation to be executed on a sequence.
type Operation interface {
	// ID returns the ticket allocated for this operation by its replica.
	ID() time.Ticket

	// Dependencies returns the elements that must be integrated before this
	// operation can be executed.
	Dependencies() []time.Ticket

	// Validate checks that the operation is well-formed.
	Validate() error

	// Execute executes this operation on the given sequence. It returns nil
	// delta if the visible content did not change.
	Execute(seq *crdt.Sequence) (*crdt.Delta, error)
}

func validateID(id time.Ticket) error {
	if id.IsInitial() || id.Counter() == 0 || id.ActorID() == time.InitialActorID {
		return fmt.Errorf("operation id %s: %w", id.Key(), ErrMalformedOperation)
	}
	return nil
}

// validateReference checks a reference from the operation to an element. An
// element created by the same replica must have been created earlier.
func validateReference(id, ref time.Ticket, name string) error {
	if ref == id {
		return fmt.Errorf("%s references itself %s: %w", name, id.Key(), ErrMalformedOperation)
	}
	if ref.ActorID() == id.ActorID() && ref.Counter() >= id.Counter() {
		return fmt.Errorf("%s %s is not older than %s: %w", name, ref.Key(), id.Key(), ErrMalformedOperation)
	}
	return nil
}
