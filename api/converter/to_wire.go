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
	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
)

// ToOperations converts the given operations to the wire type.
func ToOperations(ops []operations.Operation) []types.Operation {
	wireOps := make([]types.Operation, 0, len(ops))
	for _, op := range ops {
		wireOps = append(wireOps, ToOperation(op))
	}
	return wireOps
}

// ToOperation converts the given operation to the wire type.
func ToOperation(op operations.Operation) types.Operation {
	switch op := op.(type) {
	case *operations.Insert:
		return types.Operation{
			Kind:  types.InsertOperation,
			ID:    toTicket(op.ID()),
			Value: op.Value(),
			Left:  toOptionalTicket(op.OriginLeft()),
			Right: toOptionalTicket(op.OriginRight()),
		}
	case *operations.Delete:
		return types.Operation{
			Kind:   types.DeleteOperation,
			ID:     toTicket(op.ID()),
			Target: toOptionalTicket(op.Target()),
		}
	case *operations.Skip:
		return types.Operation{
			Kind: types.SkipOperation,
			ID:   toTicket(op.ID()),
		}
	default:
		panic("unsupported operation")
	}
}

// ToSyncResponse creates a SyncResponse carrying the given operations.
func ToSyncResponse(k key.Key, ops []operations.Operation) *types.Message {
	return &types.Message{
		Type: types.SyncResponse,
		Key:  k,
		Ops:  ToOperations(ops),
	}
}

// ToUpdate creates an Update carrying the given operations.
func ToUpdate(k key.Key, ops []operations.Operation) *types.Message {
	return &types.Message{
		Type: types.Update,
		Key:  k,
		Ops:  ToOperations(ops),
	}
}

// ToSnapshot creates the snapshot of a document from its key, state vector
// and integrated operations.
func ToSnapshot(k key.Key, vector time.VersionVector, ops []operations.Operation) *types.Snapshot {
	return &types.Snapshot{
		Key:    k,
		Vector: vector,
		Ops:    ToOperations(ops),
	}
}

func toTicket(ticket time.Ticket) types.Ticket {
	return types.Ticket{
		Counter: ticket.Counter(),
		Actor:   ticket.ActorID(),
	}
}

func toOptionalTicket(ticket time.Ticket) *types.Ticket {
	if ticket.IsInitial() {
		return nil
	}
	t := toTicket(ticket)
	return &t
}
