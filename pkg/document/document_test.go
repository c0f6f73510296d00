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

package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
)

const docKey = key.Key("notebook-nb.cell-c1")

func permutations(ops []operations.Operation, visit func([]operations.Operation)) {
	perm := make([]operations.Operation, len(ops))
	copy(perm, ops)

	var generate func(n int)
	generate = func(n int) {
		if n == 1 {
			visit(perm)
			return
		}
		for i := 0; i < n-1; i++ {
			generate(n - 1)
			if n%2 == 0 {
				perm[i], perm[n-1] = perm[n-1], perm[i]
			} else {
				perm[0], perm[n-1] = perm[n-1], perm[0]
			}
		}
		generate(n - 1)
	}
	generate(len(perm))
}

func TestDocument(t *testing.T) {
	t.Run("local edits test", func(t *testing.T) {
		doc := document.New(docKey, 1)
		ops, err := doc.InsertText(0, "héllo")
		assert.NoError(t, err)
		assert.Len(t, ops, 5)
		assert.Equal(t, "héllo", doc.Content())

		dels, err := doc.DeleteRange(1, 3)
		assert.NoError(t, err)
		assert.Len(t, dels, 3)
		assert.Equal(t, "ho", doc.Content())
		assert.Equal(t, 3, doc.Tombstones())
		assert.Equal(t, time.VersionVector{1: 8}, doc.VersionVector())

		_, err = doc.DeleteRange(1, 2)
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
		_, err = doc.InsertText(3, "x")
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
		_, err = doc.InsertAt(0, "")
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
	})

	t.Run("ops since test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		d2 := document.New(docKey, 2)
		ops1, err := d1.InsertText(0, "ab")
		require.NoError(t, err)
		ops2, err := d2.InsertText(0, "xy")
		require.NoError(t, err)
		_, err = d1.ApplyRemote(ops2...)
		require.NoError(t, err)

		all := d1.OpsSince(time.NewVersionVector())
		assert.Equal(t, append(append([]operations.Operation{}, ops1...), ops2...), all)
		assert.Equal(t, ops2[1:], d1.OpsSince(time.VersionVector{1: 2, 2: 1}))
		assert.Empty(t, d1.OpsSince(d1.VersionVector()))
		assert.Equal(t, all, d1.Ops())
	})

	t.Run("duplicates are ignored test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		d2 := document.New(docKey, 2)
		ops, err := d1.InsertText(0, "abc")
		require.NoError(t, err)

		deltas, err := d2.ApplyRemote(ops...)
		assert.NoError(t, err)
		assert.Len(t, deltas, 3)

		deltas, err = d2.ApplyRemote(append(ops, ops...)...)
		assert.NoError(t, err)
		assert.Empty(t, deltas)
		assert.Equal(t, "abc", d2.Content())
	})

	t.Run("out of order delivery waits for dependencies test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		d2 := document.New(docKey, 2)
		ops, err := d1.InsertText(0, "abc")
		require.NoError(t, err)
		del, err := d1.DeleteAt(1)
		require.NoError(t, err)

		deltas, err := d2.ApplyRemote(del, ops[2], ops[1])
		assert.NoError(t, err)
		assert.Empty(t, deltas)
		assert.Equal(t, 3, d2.Pending())
		assert.Equal(t, "", d2.Content())

		deltas, err = d2.ApplyRemote(ops[0])
		assert.NoError(t, err)
		assert.Equal(t, []crdt.Delta{
			{Type: crdt.Inserted, Index: 0, Value: "a"},
			{Type: crdt.Inserted, Index: 1, Value: "b"},
			{Type: crdt.Inserted, Index: 2, Value: "c"},
			{Type: crdt.Deleted, Index: 1, Value: "b"},
		}, deltas)
		assert.Equal(t, 0, d2.Pending())
		assert.Equal(t, "ac", d2.Content())
	})

	t.Run("malformed operations are dropped test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		d2 := document.New(docKey, 2)
		ops, err := d1.InsertText(0, "ab")
		require.NoError(t, err)

		bad := operations.NewInsert(time.NewTicket(1, 3), "", time.InitialTicket, time.InitialTicket)
		deltas, err := d2.ApplyRemote(ops[0], bad, ops[1])
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		assert.Len(t, deltas, 2)
		assert.Equal(t, "ab", d2.Content())
		assert.Equal(t, 0, d2.Pending())
	})

	t.Run("malformed operation does not stall its replica test", func(t *testing.T) {
		d := document.New(docKey, 1)
		bad := operations.NewInsert(time.NewTicket(1, 5), "", time.InitialTicket, time.InitialTicket)
		next := operations.NewInsert(time.NewTicket(2, 5), "x", time.InitialTicket, time.InitialTicket)

		_, err := d.ApplyRemote(bad, next)
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		assert.Equal(t, "x", d.Content())
		assert.Equal(t, 0, d.Pending())
		assert.Equal(t, uint64(2), d.VersionVector().VersionOf(5))

		// a resend is reported again but changes nothing
		_, err = d.ApplyRemote(bad, next)
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		assert.Equal(t, "x", d.Content())
		assert.Equal(t, 0, d.Pending())

		// peers syncing from this replica receive the skip
		ops := d.OpsSince(time.NewVersionVector())
		require.Len(t, ops, 2)
		assert.Equal(t, operations.NewSkip(time.NewTicket(1, 5)), ops[0])
	})

	t.Run("valid operation replaces a queued skip test", func(t *testing.T) {
		d := document.New(docKey, 1)
		first := operations.NewInsert(time.NewTicket(1, 5), "a", time.InitialTicket, time.InitialTicket)
		forged := operations.NewInsert(time.NewTicket(2, 5), "", time.InitialTicket, time.InitialTicket)
		second := operations.NewInsert(time.NewTicket(2, 5), "b", first.ID(), time.InitialTicket)

		_, err := d.ApplyRemote(second)
		require.NoError(t, err)
		_, err = d.ApplyRemote(forged)
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		_, err = d.ApplyRemote(first)
		require.NoError(t, err)
		assert.Equal(t, "ab", d.Content())
	})

	t.Run("dependency that can never arrive test", func(t *testing.T) {
		d := document.New(docKey, 1)
		a := operations.NewInsert(time.NewTicket(1, 5), "a", time.InitialTicket, time.InitialTicket)
		del := operations.NewDelete(time.NewTicket(2, 5), a.ID())

		// targets the delete, which never becomes an element
		bad := operations.NewDelete(time.NewTicket(1, 6), del.ID())
		next := operations.NewInsert(time.NewTicket(2, 6), "z", time.InitialTicket, time.InitialTicket)

		_, err := d.ApplyRemote(a, del, bad, next)
		assert.ErrorIs(t, err, operations.ErrMalformedOperation)
		assert.Equal(t, "z", d.Content())
		assert.Equal(t, 0, d.Pending())
	})

	t.Run("operation too far ahead is refused test", func(t *testing.T) {
		d := document.New(docKey, 1)
		far := operations.NewInsert(
			time.NewTicket(document.MaxPendingGap+1, 5), "f", time.InitialTicket, time.InitialTicket,
		)
		_, err := d.ApplyRemote(far)
		assert.ErrorIs(t, err, document.ErrTooFarAhead)
		assert.Equal(t, 0, d.Pending())

		edge := operations.NewInsert(
			time.NewTicket(document.MaxPendingGap, 5), "e", time.InitialTicket, time.InitialTicket,
		)
		_, err = d.ApplyRemote(edge)
		assert.NoError(t, err)
		assert.Equal(t, 1, d.Pending())
	})

	t.Run("restoring own operations advances the clock test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		ops, err := d1.InsertText(0, "ab")
		require.NoError(t, err)

		restored := document.New(docKey, 1)
		_, err = restored.ApplyRemote(ops...)
		require.NoError(t, err)

		op, err := restored.InsertAt(2, "c")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), op.ID().Counter())
		assert.Equal(t, "abc", restored.Content())
	})
}

func TestConvergence(t *testing.T) {
	t.Run("hi and yo converge test", func(t *testing.T) {
		r1 := document.New(docKey, 1)
		r2 := document.New(docKey, 2)
		hi, err := r1.InsertText(0, "hi")
		require.NoError(t, err)
		yo, err := r2.InsertText(0, "yo")
		require.NoError(t, err)

		_, err = r1.ApplyRemote(r2.OpsSince(r1.VersionVector())...)
		require.NoError(t, err)
		_, err = r2.ApplyRemote(hi...)
		require.NoError(t, err)

		assert.Equal(t, "hiyo", r1.Content())
		assert.Equal(t, r1.Content(), r2.Content())

		all := append(append([]operations.Operation{}, hi...), yo...)
		permutations(all, func(ops []operations.Operation) {
			replica := document.New(docKey, 3)
			_, err := replica.ApplyRemote(append(ops, ops...)...)
			require.NoError(t, err)
			assert.Equal(t, "hiyo", replica.Content())
		})
	})

	t.Run("all permutations converge test", func(t *testing.T) {
		base := document.New(docKey, 1)
		baseOps, err := base.InsertText(0, "ab")
		require.NoError(t, err)

		var concurrent []operations.Operation
		for _, actor := range []time.ActorID{2, 3, 4} {
			replica := document.New(docKey, actor)
			_, err := replica.ApplyRemote(baseOps...)
			require.NoError(t, err)

			// every replica inserts at the same position
			op, err := replica.InsertAt(1, string(rune('A'+actor)))
			require.NoError(t, err)
			concurrent = append(concurrent, op)
		}

		deleter := document.New(docKey, 5)
		_, err = deleter.ApplyRemote(baseOps...)
		require.NoError(t, err)
		del, err := deleter.DeleteAt(0)
		require.NoError(t, err)
		concurrent = append(concurrent, del)

		all := append(append([]operations.Operation{}, baseOps...), concurrent...)
		var expected string
		permutations(all, func(ops []operations.Operation) {
			replica := document.New(docKey, 9)
			for _, op := range ops {
				_, err := replica.ApplyRemote(op)
				require.NoError(t, err)
			}
			assert.Equal(t, 0, replica.Pending())

			if expected == "" {
				expected = replica.Content()
			}
			assert.Equal(t, expected, replica.Content())
		})
		assert.Equal(t, "CDEb", expected)
	})

	t.Run("idempotence test", func(t *testing.T) {
		d1 := document.New(docKey, 1)
		ops, err := d1.InsertText(0, "xyz")
		require.NoError(t, err)
		del, err := d1.DeleteAt(1)
		require.NoError(t, err)
		ops = append(ops, del)

		for _, op := range ops {
			once := document.New(docKey, 2)
			twice := document.New(docKey, 3)
			_, err := once.ApplyRemote(ops...)
			require.NoError(t, err)
			_, err = twice.ApplyRemote(ops...)
			require.NoError(t, err)
			_, err = twice.ApplyRemote(op)
			require.NoError(t, err)
			assert.Equal(t, once.Content(), twice.Content())
		}
	})

	t.Run("concurrent delete keeps the neighbor insert test", func(t *testing.T) {
		r1 := document.New(docKey, 1)
		r2 := document.New(docKey, 2)
		base, err := r1.InsertText(0, "abc")
		require.NoError(t, err)
		_, err = r2.ApplyRemote(base...)
		require.NoError(t, err)

		del, err := r1.DeleteAt(1)
		require.NoError(t, err)
		ins, err := r2.InsertAt(2, "X")
		require.NoError(t, err)

		_, err = r1.ApplyRemote(ins)
		require.NoError(t, err)
		_, err = r2.ApplyRemote(del)
		require.NoError(t, err)

		assert.Equal(t, "aXc", r1.Content())
		assert.Equal(t, "aXc", r2.Content())
	})
}
