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

package crdt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/time"
)

func newSequence(actor time.ActorID) *crdt.Sequence {
	return crdt.NewSequence(time.NewClock(actor))
}

func remote(e *crdt.Element) *crdt.Element {
	return crdt.NewElement(e.ID(), e.Value(), e.OriginLeft(), e.OriginRight())
}

func insertText(t *testing.T, s *crdt.Sequence, index int, text string) []*crdt.Element {
	var elems []*crdt.Element
	for i, r := range text {
		e, err := s.LocalInsert(index+i, string(r))
		require.NoError(t, err)
		elems = append(elems, e)
	}
	return elems
}

func TestSequence(t *testing.T) {
	t.Run("local insert and delete test", func(t *testing.T) {
		s := newSequence(1)
		insertText(t, s, 0, "hello")
		assert.Equal(t, "hello", s.Content())
		assert.Equal(t, 5, s.Len())

		_, err := s.LocalInsert(5, "!")
		assert.NoError(t, err)
		_, err = s.LocalInsert(0, ">")
		assert.NoError(t, err)
		assert.Equal(t, ">hello!", s.Content())

		id, err := s.LocalDelete(1)
		assert.NoError(t, err)
		assert.Equal(t, ">ello!", s.Content())
		elem, ok := s.Get(id)
		assert.True(t, ok)
		assert.Equal(t, "h", elem.Value())
		assert.True(t, elem.Removed())
		assert.Equal(t, 1, s.Tombstones())
		assert.Equal(t, []string{">", "e", "l", "l", "o", "!"}, s.VisibleContent())
		assert.Len(t, s.Elements(), 7)
	})

	t.Run("origins follow neighbors in the full sequence test", func(t *testing.T) {
		s := newSequence(1)
		elems := insertText(t, s, 0, "abc")
		_, err := s.LocalDelete(1)
		require.NoError(t, err)

		// "a{b}c": inserting after a is anchored between a and the tombstone b.
		x, err := s.LocalInsert(1, "x")
		require.NoError(t, err)
		assert.Equal(t, elems[0].ID(), x.OriginLeft())
		assert.Equal(t, elems[1].ID(), x.OriginRight())
		assert.Equal(t, "axc", s.Content())

		first, err := s.LocalInsert(0, "0")
		require.NoError(t, err)
		assert.True(t, first.OriginLeft().IsInitial())
		assert.Equal(t, elems[0].ID(), first.OriginRight())

		last, err := s.LocalInsert(s.Len(), "z")
		require.NoError(t, err)
		assert.True(t, last.OriginRight().IsInitial())
	})

	t.Run("index out of range test", func(t *testing.T) {
		s := newSequence(1)
		_, err := s.LocalInsert(1, "a")
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
		_, err = s.LocalInsert(-1, "a")
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
		_, err = s.LocalDelete(0)
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)

		insertText(t, s, 0, "ab")
		_, err = s.LocalDelete(2)
		assert.ErrorIs(t, err, crdt.ErrIndexOutOfRange)
	})

	t.Run("integrate is idempotent test", func(t *testing.T) {
		s1, s2 := newSequence(1), newSequence(2)
		for _, e := range insertText(t, s1, 0, "ab") {
			delta, err := s2.Integrate(remote(e))
			require.NoError(t, err)
			assert.NotNil(t, delta)
		}

		delta, err := s2.Integrate(remote(s1.Elements()[0]))
		assert.NoError(t, err)
		assert.Nil(t, delta)
		assert.Equal(t, "ab", s2.Content())

		id, err := s1.LocalDelete(0)
		require.NoError(t, err)
		delta, err = s2.Remove(id)
		assert.NoError(t, err)
		assert.Equal(t, &crdt.Delta{Type: crdt.Deleted, Index: 0, Value: "a"}, delta)

		delta, err = s2.Remove(id)
		assert.NoError(t, err)
		assert.Nil(t, delta)
		assert.Equal(t, "b", s2.Content())
	})

	t.Run("integrate with unknown origin test", func(t *testing.T) {
		s := newSequence(1)
		_, err := s.Integrate(crdt.NewElement(time.NewTicket(2, 9), "x", time.NewTicket(1, 9), time.InitialTicket))
		assert.ErrorIs(t, err, crdt.ErrElementNotFound)

		_, err = s.Integrate(crdt.NewElement(time.NewTicket(2, 9), "x", time.InitialTicket, time.NewTicket(1, 9)))
		assert.ErrorIs(t, err, crdt.ErrElementNotFound)

		_, err = s.Remove(time.NewTicket(1, 9))
		assert.ErrorIs(t, err, crdt.ErrElementNotFound)
	})

	t.Run("concurrent inserts at the same position test", func(t *testing.T) {
		s1, s2 := newSequence(1), newSequence(2)
		for _, e := range insertText(t, s1, 0, "abcd") {
			_, err := s2.Integrate(remote(e))
			require.NoError(t, err)
		}

		a, err := s1.LocalInsert(2, "A")
		require.NoError(t, err)
		b, err := s2.LocalInsert(2, "B")
		require.NoError(t, err)

		deltaB, err := s1.Integrate(remote(b))
		require.NoError(t, err)
		deltaA, err := s2.Integrate(remote(a))
		require.NoError(t, err)

		// B has the lower id, so it is placed first on both replicas.
		assert.Equal(t, "abBAcd", s1.Content())
		assert.Equal(t, s1.Content(), s2.Content())
		assert.Equal(t, &crdt.Delta{Type: crdt.Inserted, Index: 2, Value: "B"}, deltaB)
		assert.Equal(t, &crdt.Delta{Type: crdt.Inserted, Index: 3, Value: "A"}, deltaA)
	})

	t.Run("insert next to a concurrently deleted element test", func(t *testing.T) {
		s1, s2 := newSequence(1), newSequence(2)
		for _, e := range insertText(t, s1, 0, "abc") {
			_, err := s2.Integrate(remote(e))
			require.NoError(t, err)
		}

		deleted, err := s1.LocalDelete(1)
		require.NoError(t, err)
		x, err := s2.LocalInsert(2, "X")
		require.NoError(t, err)

		_, err = s1.Integrate(remote(x))
		require.NoError(t, err)
		_, err = s2.Remove(deleted)
		require.NoError(t, err)

		assert.Equal(t, "aXc", s1.Content())
		assert.Equal(t, "aXc", s2.Content())
	})
}
