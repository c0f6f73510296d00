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


package converter

import (
	"errors"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
)

// FromOperations converts the given wire operations one by one. A wire
// operation that cannot be converted is reported in the returned error. When
// its id is usable it is converted to a Skip so that its counter is used up;
// otherwise it is left out. The other operations are always returned.
func FromOperations(wireOps []types.Operation) ([]operations.Operation, error) {
	ops := make([]operations.Operation, 0, len(wireOps))
	var errs []error
	for _, wireOp := range wireOps {
		op, err := FromOperation(wireOp)
		if err != nil {
			errs = append(errs, err)
			skip := operations.NewSkip(fromTicket(wireOp.ID))
			if skip.Validate() != nil {
				continue
			}
			op = skip
		}
		ops = append(ops, op)
	}
	return ops, errors.Join(errs...)
}

// FromOperation converts the given wire operation.
func FromOperation(wireOp types.Operation) (operations.Operation, error) {
	switch wireOp.Kind {
	case types.InsertOperation:
		if wireOp.Target != nil {
			return nil, malformed("insert %d with target", wireOp.ID.Counter)
		}
		return operations.NewInsert(
			fromTicket(wireOp.ID),
			wireOp.Value,
			fromOptionalTicket(wireOp.Left),
			fromOptionalTicket(wireOp.Right),
		), nil
	case types.DeleteOperation:
		if wireOp.Target == nil {
			return nil, malformed("delete %d without target", wireOp.ID.Counter)
		}
		return operations.NewDelete(
			fromTicket(wireOp.ID),
			fromTicket(*wireOp.Target),
		), nil
	case types.SkipOperation:
		return operations.NewSkip(fromTicket(wireOp.ID)), nil
	default:
		return nil, malformed("unsupported operation kind %q", wireOp.Kind)
	}
}

func fromTicket(ticket types.Ticket) time.Ticket {
	return time.NewTicket(ticket.Counter, ticket.Actor)
}

func fromOptionalTicket(ticket *types.Ticket) time.Ticket {
	if ticket == nil {
		return time.InitialTicket
	}
	return fromTicket(*ticket)
}
