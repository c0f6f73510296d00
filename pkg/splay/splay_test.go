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

package splay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datacanvas/collab/pkg/splay"
)

type stringValue struct {
	content string
	removed bool
}

func newSplayNode(content string) *splay.Node[*stringValue] {
	return splay.NewNode(&stringValue{
		content: content,
	})
}

func (v *stringValue) Len() int {
	if v.removed {
		return 0
	}
	return len(v.content)
}

func (v *stringValue) String() string {
	if v.removed {
		return ""
	}
	return v.content
}

func TestSplayTree(t *testing.T) {
	t.Run("insert and splay test", func(t *testing.T) {
		tree := splay.NewTree[*stringValue](nil)

		node, err := tree.Find(0)
		assert.NoError(t, err)
		assert.Nil(t, node)

		nodeA := tree.Insert(newSplayNode("A2"))
		assert.Equal(t, "[2,2]A2", tree.ToTestString())
		nodeB := tree.Insert(newSplayNode("B23"))
		assert.Equal(t, "[2,2]A2[5,3]B23", tree.ToTestString())
		nodeC := tree.Insert(newSplayNode("C234"))
		assert.Equal(t, "[2,2]A2[5,3]B23[9,4]C234", tree.ToTestString())
		nodeD := tree.Insert(newSplayNode("D2345"))
		assert.Equal(t, "[2,2]A2[5,3]B23[9,4]C234[14,5]D2345", tree.ToTestString())

		tree.Splay(nodeB)
		assert.Equal(t, "[2,2]A2[14,3]B23[9,4]C234[5,5]D2345", tree.ToTestString())
		assert.True(t, tree.CheckWeight())

		assert.Equal(t, 0, tree.IndexOf(nodeA))
		assert.Equal(t, 2, tree.IndexOf(nodeB))
		assert.Equal(t, 5, tree.IndexOf(nodeC))
		assert.Equal(t, 9, tree.IndexOf(nodeD))
		assert.Equal(t, "A2B23C234D2345", tree.String())
	})

	t.Run("find by unit weight test", func(t *testing.T) {
		tree := splay.NewTree[*stringValue](nil)
		head := tree.Insert(splay.NewNode(&stringValue{removed: true}))
		nodes := []*splay.Node[*stringValue]{head}
		for _, c := range []string{"a", "b", "c", "d", "e"} {
			nodes = append(nodes, tree.Insert(newSplayNode(c)))
		}
		assert.Equal(t, 5, tree.Len())

		for i := 1; i <= 5; i++ {
			node, err := tree.Find(i)
			assert.NoError(t, err)
			assert.Equal(t, nodes[i], node)
		}

		node, err := tree.Find(0)
		assert.NoError(t, err)
		assert.Equal(t, head, node)

		_, err = tree.Find(6)
		assert.ErrorIs(t, err, splay.ErrOutOfIndex)
		_, err = tree.Find(-1)
		assert.ErrorIs(t, err, splay.ErrOutOfIndex)
	})

	t.Run("reweigh skips zero weight nodes test", func(t *testing.T) {
		tree := splay.NewTree[*stringValue](nil)
		nodeA := tree.Insert(newSplayNode("a"))
		nodeB := tree.Insert(newSplayNode("b"))
		nodeC := tree.Insert(newSplayNode("c"))

		nodeB.Value().removed = true
		tree.Reweigh(nodeB)
		assert.True(t, tree.CheckWeight())
		assert.Equal(t, 2, tree.Len())
		assert.Equal(t, "ac", tree.String())

		node, err := tree.Find(1)
		assert.NoError(t, err)
		assert.Equal(t, nodeA, node)

		node, err = tree.Find(2)
		assert.NoError(t, err)
		assert.Equal(t, nodeC, node)
		assert.Equal(t, 1, tree.IndexOf(nodeC))
	})

	t.Run("insert after middle node test", func(t *testing.T) {
		tree := splay.NewTree[*stringValue](nil)
		nodeA := tree.Insert(newSplayNode("a"))
		tree.Insert(newSplayNode("c"))
		nodeB := tree.InsertAfter(nodeA, newSplayNode("b"))

		assert.Equal(t, "abc", tree.String())
		assert.Equal(t, 1, tree.IndexOf(nodeB))
		assert.True(t, tree.CheckWeight())
	})
}
