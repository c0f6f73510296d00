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


package converter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/awareness"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
)

func TestConverter(t *testing.T) {
	k, err := key.ForCell("nb1", "c1")
	require.NoError(t, err)

	t.Run("update message test", func(t *testing.T) {
		doc := document.New(k, time.ActorID(1))
		_, err := doc.InsertText(0, "hey")
		require.NoError(t, err)
		_, err = doc.DeleteAt(1)
		require.NoError(t, err)

		bytes, err := converter.MessageToBytes(converter.ToUpdate(k, doc.Ops()))
		require.NoError(t, err)

		msg, err := converter.BytesToMessage(bytes)
		require.NoError(t, err)
		assert.Equal(t, types.Update, msg.Type)
		assert.Equal(t, k, msg.Key)

		ops, err := converter.FromOperations(msg.Ops)
		require.NoError(t, err)
		assert.Len(t, ops, 4)

		replica := document.New(k, time.ActorID(2))
		_, err = replica.ApplyRemote(ops...)
		require.NoError(t, err)
		assert.Equal(t, "hy", replica.Content())
		assert.Equal(t, doc.VersionVector(), replica.VersionVector())
	})

	t.Run("sync request test", func(t *testing.T) {
		vector := time.NewVersionVector()
		vector.Set(time.ActorID(0xabc), 7)
		vector.Set(time.ActorID(1), 2)

		bytes, err := converter.MessageToBytes(types.NewSyncRequest(k, vector))
		require.NoError(t, err)
		assert.Contains(t, string(bytes), `"0000000000000abc":7`)

		msg, err := converter.BytesToMessage(bytes)
		require.NoError(t, err)
		assert.Equal(t, types.SyncRequest, msg.Type)
		assert.Equal(t, vector, msg.StateVector)
	})

	t.Run("awareness message test", func(t *testing.T) {
		nb := k.Notebook()
		fields := &awareness.Fields{
			DocumentKey: k,
			Cursor:      &awareness.Cursor{Anchor: 1, Head: 3},
			Meta:        awareness.Meta{Name: "ada", Color: "#30bced"},
		}
		update := awareness.Update{ClientID: time.ActorID(9), Fields: fields, Clock: 4}

		bytes, err := converter.MessageToBytes(types.NewAwareness(nb, update))
		require.NoError(t, err)
		msg, err := converter.BytesToMessage(bytes)
		require.NoError(t, err)
		assert.Equal(t, update, msg.AwarenessUpdate())

		leave := awareness.Update{ClientID: time.ActorID(9), Clock: 5}
		bytes, err = converter.MessageToBytes(types.NewAwareness(nb, leave))
		require.NoError(t, err)
		msg, err = converter.BytesToMessage(bytes)
		require.NoError(t, err)
		assert.Nil(t, msg.Fields)
		assert.Equal(t, uint64(5), msg.Clock)
	})

	t.Run("malformed message test", func(t *testing.T) {
		for _, frame := range []string{
			`not json`,
			`{"type":"shout","key":"notebook-nb1"}`,
			`{"type":"update","key":"nb1"}`,
			`{"type":"sync-request","key":"notebook-nb1","stateVector":{"xyz":1}}`,
		} {
			_, err := converter.BytesToMessage([]byte(frame))
			assert.ErrorIs(t, err, operations.ErrMalformedOperation, frame)
		}
	})

	t.Run("malformed operation test", func(t *testing.T) {
		_, err := converter.FromOperations([]types.Operation{
			{Kind: "move", ID: types.Ticket{Counter: 1, Actor: 1}},
		})
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)

		_, err = converter.FromOperations([]types.Operation{
			{Kind: types.DeleteOperation, ID: types.Ticket{Counter: 1, Actor: 1}},
		})
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
	})

	t.Run("convert valid operations around a bad one test", func(t *testing.T) {
		a := types.Ticket{Counter: 1, Actor: 7}
		ops, err := converter.FromOperations([]types.Operation{
			{Kind: types.InsertOperation, ID: a, Value: "a"},
			{Kind: types.DeleteOperation, ID: types.Ticket{Counter: 2, Actor: 7}},
			{Kind: "move"},
			{Kind: types.InsertOperation, ID: types.Ticket{Counter: 3, Actor: 7}, Value: "b", Left: &a},
		})
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		require.Len(t, ops, 3)
		assert.IsType(t, &operations.Insert{}, ops[0])
		assert.IsType(t, &operations.Skip{}, ops[1])
		assert.Equal(t, time.NewTicket(2, 7), ops[1].ID())
		assert.IsType(t, &operations.Insert{}, ops[2])

		doc := document.New(k, time.ActorID(1))
		_, err = doc.ApplyRemote(ops...)
		assert.NoError(t, err)
		assert.Equal(t, "ab", doc.Content())
		assert.Equal(t, uint64(3), doc.VersionVector().VersionOf(7))
	})

	t.Run("skip round trip test", func(t *testing.T) {
		wireOp := converter.ToOperation(operations.NewSkip(time.NewTicket(4, 2)))
		assert.Equal(t, types.SkipOperation, wireOp.Kind)

		op, err := converter.FromOperation(wireOp)
		require.NoError(t, err)
		assert.Equal(t, operations.NewSkip(time.NewTicket(4, 2)), op)
	})

	t.Run("encode failure is not retryable test", func(t *testing.T) {
		assert.True(t, errors.IsStatus(converter.ErrEncodeFailure, errors.ErrCodeInternal))
		assert.Equal(t, "ErrEncodeFailure", errors.CodeOf(converter.ErrEncodeFailure))
		assert.False(t, errors.IsRetryable(converter.ErrEncodeFailure))
	})

	t.Run("snapshot test", func(t *testing.T) {
		doc := document.New(k, time.ActorID(1))
		_, err := doc.InsertText(0, "abc")
		require.NoError(t, err)
		_, err = doc.DeleteAt(0)
		require.NoError(t, err)

		bytes, err := converter.SnapshotToBytes(converter.ToSnapshot(doc.Key(), doc.VersionVector(), doc.Ops()))
		require.NoError(t, err)

		snapshot, err := converter.BytesToSnapshot(bytes)
		require.NoError(t, err)
		assert.Equal(t, k, snapshot.Key)
		assert.Equal(t, doc.VersionVector(), snapshot.Vector)

		ops, err := converter.FromOperations(snapshot.Ops)
		require.NoError(t, err)
		restored := document.New(k, time.ActorID(1))
		_, err = restored.ApplyRemote(ops...)
		require.NoError(t, err)
		assert.Equal(t, "bc", restored.Content())
		assert.Equal(t, 1, restored.Tombstones())

		_, err = converter.BytesToSnapshot([]byte(`{"key":"bad key"}`))
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
	})
}
