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

// Package splay provides a weighted splay tree. The sequence uses it to find
// elements by their visible index, giving each element a weight of one while
// it is visible and zero once it becomes a tombstone.
package splay

import (
	"fmt"
	"strings"
)

// ErrOutOfIndex is returned when the given index is out of index.
var ErrOutOfIndex = fmt.Errorf("out of index")

// Value represents the data stored in the nodes of Tree.
type Value interface {
	Len() int
	String() string
}

// Node is a node of Tree.
type Node[V Value] struct {
	value  V
	weight int

	left   *Node[V]
	right  *Node[V]
	parent *Node[V]
}

// NewNode creates a new instance of Node.
func NewNode[V Value](value V) *Node[V] {
	n := &Node[V]{
		value: value,
	}
	n.initWeight()
	return n
}

// Value returns the value of this Node.
func (n *Node[V]) Value() V {
	return n.value
}

func (n *Node[V]) leftWeight() int {
	if n.left == nil {
		return 0
	}
	return n.left.weight
}

func (n *Node[V]) rightWeight() int {
	if n.right == nil {
		return 0
	}
	return n.right.weight
}

func (n *Node[V]) initWeight() {
	n.weight = n.value.Len()
}

func (n *Node[V]) hasLinks() bool {
	return n.parent != nil || n.left != nil || n.right != nil
}

// Tree is weighted binary search tree which is based on Splay tree.
// original paper on Splay Trees: https://www.cs.cmu.edu/~sleator/papers/self-adjusting.pdf
type Tree[V Value] struct {
	root *Node[V]
}

// NewTree creates a new instance of Tree.
func NewTree[V Value](root *Node[V]) *Tree[V] {
	return &Tree[V]{
		root: root,
	}
}

// Insert inserts the node at the last.
func (t *Tree[V]) Insert(node *Node[V]) *Node[V] {
	if t.root == nil {
		t.root = node
		return node
	}

	return t.InsertAfter(t.rightmost(), node)
}

// InsertAfter inserts the node after the given previous node.
func (t *Tree[V]) InsertAfter(prev *Node[V], node *Node[V]) *Node[V] {
	t.Splay(prev)
	t.root = node
	node.right = prev.right
	if prev.right != nil {
		prev.right.parent = node
	}
	node.left = prev
	prev.parent = node
	prev.right = nil

	t.updateWeight(prev)
	t.updateWeight(node)

	return node
}

// Reweigh recalculates the weight of the given node after its value changed
// length, for example when an element is tombstoned.
func (t *Tree[V]) Reweigh(node *Node[V]) {
	t.Splay(node)
	t.updateWeight(node)
}

// Splay moves the given node to the root.
func (t *Tree[V]) Splay(node *Node[V]) {
	if node == nil {
		return
	}

	for {
		switch {
		case isLeftChild(node.parent) && isRightChild(node):
			// zig-zag
			t.rotateLeft(node)
			t.rotateRight(node)
		case isRightChild(node.parent) && isLeftChild(node):
			// zig-zag
			t.rotateRight(node)
			t.rotateLeft(node)
		case isLeftChild(node.parent) && isLeftChild(node):
			// zig-zig
			t.rotateRight(node.parent)
			t.rotateRight(node)
		case isRightChild(node.parent) && isRightChild(node):
			// zig-zig
			t.rotateLeft(node.parent)
			t.rotateLeft(node)
		default:
			// zig
			if isLeftChild(node) {
				t.rotateRight(node)
			} else if isRightChild(node) {
				t.rotateLeft(node)
			}
			return
		}
	}
}

// IndexOf returns the sum of the weights of the nodes before the given node,
// or -1 if the node does not belong to this tree.
func (t *Tree[V]) IndexOf(node *Node[V]) int {
	if node == nil || node != t.root && !node.hasLinks() {
		return -1
	}

	index := 0
	current := node
	var prev *Node[V]
	for current != nil {
		if prev == nil || prev == current.right {
			index += current.value.Len() + current.leftWeight()
		}
		prev = current
		current = current.parent
	}
	return index - node.value.Len()
}

// Find returns the node at which the accumulated weight reaches the given
// index. With unit weights, Find(i) is the i-th weighted node counting from
// one; nodes of zero weight are never returned for a positive index.
func (t *Tree[V]) Find(index int) (*Node[V], error) {
	if index < 0 || index > t.Len() {
		return nil, fmt.Errorf("tree length %d, index %d: %w", t.Len(), index, ErrOutOfIndex)
	}
	if t.root == nil {
		return nil, nil
	}

	node := t.root
	offset := index
	for {
		if node.left != nil && offset <= node.leftWeight() {
			node = node.left
		} else if node.right != nil && node.leftWeight()+node.value.Len() < offset {
			offset -= node.leftWeight() + node.value.Len()
			node = node.right
		} else {
			break
		}
	}

	t.Splay(node)
	return node, nil
}

// String returns a string containing node values.
func (t *Tree[V]) String() string {
	var builder strings.Builder
	traverseInOrder(t.root, func(node *Node[V]) {
		builder.WriteString(node.value.String())
	})
	return builder.String()
}

// ToTestString returns a string containing the metadata of the Node
// for debugging purpose.
func (t *Tree[V]) ToTestString() string {
	var builder strings.Builder

	traverseInOrder(t.root, func(node *Node[V]) {
		builder.WriteString(fmt.Sprintf(
			"[%d,%d]%s",
			node.weight,
			node.value.Len(),
			node.value.String(),
		))
	})
	return builder.String()
}

// CheckWeight returns false when there is an incorrect weight node.
// for debugging purpose.
func (t *Tree[V]) CheckWeight() bool {
	valid := true
	traverseInOrder(t.root, func(node *Node[V]) {
		if node.weight != node.value.Len()+node.leftWeight()+node.rightWeight() {
			valid = false
		}
	})
	return valid
}

// Len returns the total weight of this Tree.
func (t *Tree[V]) Len() int {
	if t.root == nil {
		return 0
	}

	return t.root.weight
}

func (t *Tree[V]) updateWeight(node *Node[V]) {
	node.weight = node.value.Len() + node.leftWeight() + node.rightWeight()
}

func (t *Tree[V]) rotateLeft(pivot *Node[V]) {
	root := pivot.parent
	if root.parent != nil {
		if root == root.parent.left {
			root.parent.left = pivot
		} else {
			root.parent.right = pivot
		}
	} else {
		t.root = pivot
	}
	pivot.parent = root.parent

	root.right = pivot.left
	if root.right != nil {
		root.right.parent = root
	}

	pivot.left = root
	root.parent = pivot

	t.updateWeight(root)
	t.updateWeight(pivot)
}

func (t *Tree[V]) rotateRight(pivot *Node[V]) {
	root := pivot.parent
	if root.parent != nil {
		if root == root.parent.left {
			root.parent.left = pivot
		} else {
			root.parent.right = pivot
		}
	} else {
		t.root = pivot
	}
	pivot.parent = root.parent

	root.left = pivot.right
	if root.left != nil {
		root.left.parent = root
	}

	pivot.right = root
	root.parent = pivot

	t.updateWeight(root)
	t.updateWeight(pivot)
}

func (t *Tree[V]) rightmost() *Node[V] {
	node := t.root
	for node.right != nil {
		node = node.right
	}
	return node
}

func traverseInOrder[V Value](node *Node[V], callback func(node *Node[V])) {
	if node == nil {
		return
	}

	traverseInOrder(node.left, callback)
	callback(node)
	traverseInOrder(node.right, callback)
}

func isLeftChild[V Value](node *Node[V]) bool {
	return node != nil && node.parent != nil && node.parent.left == node
}

func isRightChild[V Value](node *Node[V]) bool {
	return node != nil && node.parent != nil && node.parent.right == node
}
