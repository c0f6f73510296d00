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

// Package crdt provides the replicated sequence: a list of elements that any
// number of replicas can edit concurrently and merge in any order, always
// converging to the same content.
package crdt

import (
	"fmt"
	"strings"

	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/errors"
	"github.com/datacanvas/collab/pkg/splay"
)

var (
	// ErrIndexOutOfRange is returned when a local edit targets a position
	// outside the visible content.
	ErrIndexOutOfRange = errors.InvalidArgument("index out of range").WithCode("ErrIndexOutOfRange")

	// ErrElementNotFound is returned when an operation references an element
	// that has not been integrated.
	ErrElementNotFound = errors.NotFound("element not found").WithCode("ErrElementNotFound")
)

// Sequence is an ordered list of elements including tombstones. Elements are
// kept in a linked list for merges, in a map for lookups by id, and in a
// splay tree weighted by visibility for lookups by visible index.
type Sequence struct {
	clock    *time.Clock
	head     *Element
	index    *splay.Tree[*Element]
	elements map[time.Ticket]*Element
}

// NewSequence creates a new Sequence whose local inserts are stamped by the
// given clock.
func NewSequence(clock *time.Clock) *Sequence {
	head := newHead()

	return &Sequence{
		clock:    clock,
		head:     head,
		index:    splay.NewTree(head.indexNode),
		elements: map[time.Ticket]*Element{time.InitialTicket: head},
	}
}

// Len returns the number of visible elements.
func (s *Sequence) Len() int {
	return s.index.Len()
}

// Has returns whether the element of the given id has been integrated.
func (s *Sequence) Has(id time.Ticket) bool {
	_, ok := s.elements[id]
	return ok
}

// Get returns the element of the given id.
func (s *Sequence) Get(id time.Ticket) (*Element, bool) {
	if id.IsInitial() {
		return nil, false
	}
	elem, ok := s.elements[id]
	return elem, ok
}

// LocalInsert inserts the value so that it becomes visible at the given index
// and returns the new element for broadcast.
func (s *Sequence) LocalInsert(index int, value string) (*Element, error) {
	if index < 0 || index > s.Len() {
		return nil, fmt.Errorf("insert at %d of %d: %w", index, s.Len(), ErrIndexOutOfRange)
	}

	left := s.head
	if index > 0 {
		node, err := s.index.Find(index)
		if err != nil {
			return nil, fmt.Errorf("insert at %d: %w", index, err)
		}
		left = node.Value()
	}

	originRight := time.InitialTicket
	if left.next != nil {
		originRight = left.next.id
	}

	elem := NewElement(s.clock.Next(), value, left.id, originRight)
	s.insertAfter(left, elem)
	return elem, nil
}

// LocalDelete tombstones the element visible at the given index and returns
// its id for broadcast.
func (s *Sequence) LocalDelete(index int) (time.Ticket, error) {
	if index < 0 || index >= s.Len() {
		return time.InitialTicket, fmt.Errorf("delete at %d of %d: %w", index, s.Len(), ErrIndexOutOfRange)
	}

	node, err := s.index.Find(index + 1)
	if err != nil {
		return time.InitialTicket, fmt.Errorf("delete at %d: %w", index, err)
	}

	elem := node.Value()
	s.tombstone(elem)
	return elem.id, nil
}

// Integrate merges an element created by another replica. The origins of the
// element must already be integrated. Integrating an element twice is a
// no-op, in which case the returned delta is nil.
func (s *Sequence) Integrate(elem *Element) (*Delta, error) {
	if s.Has(elem.id) {
		return nil, nil
	}

	left, ok := s.elements[elem.originLeft]
	if !ok {
		return nil, fmt.Errorf("origin left %s: %w", elem.originLeft.Key(), ErrElementNotFound)
	}
	var right *Element
	if !elem.originRight.IsInitial() {
		if right, ok = s.elements[elem.originRight]; !ok {
			return nil, fmt.Errorf("origin right %s: %w", elem.originRight.Key(), ErrElementNotFound)
		}
	}

	// Elements between the origins were inserted concurrently. Those sharing
	// the origin left are ordered by id; those anchored on an element inside
	// the range stay with their origin. The scan ends at the first element
	// anchored before the range.
	conflicting := make(map[time.Ticket]bool)
	beforeOrigin := make(map[time.Ticket]bool)
	for o := left.next; o != nil && o != right; o = o.next {
		beforeOrigin[o.id] = true
		conflicting[o.id] = true

		if o.originLeft == elem.originLeft {
			if o.id.Compare(elem.id) < 0 {
				left = o
				conflicting = make(map[time.Ticket]bool)
			} else if o.originRight == elem.originRight {
				break
			}
		} else if beforeOrigin[o.originLeft] {
			if !conflicting[o.originLeft] {
				left = o
				conflicting = make(map[time.Ticket]bool)
			}
		} else {
			break
		}
	}

	s.insertAfter(left, elem)
	return &Delta{
		Type:  Inserted,
		Index: s.index.IndexOf(elem.indexNode),
		Value: elem.value,
	}, nil
}

// Remove tombstones the element of the given id. Removing a tombstone is a
// no-op, in which case the returned delta is nil.
func (s *Sequence) Remove(id time.Ticket) (*Delta, error) {
	elem, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("remove %s: %w", id.Key(), ErrElementNotFound)
	}
	if elem.removed {
		return nil, nil
	}

	index := s.index.IndexOf(elem.indexNode)
	s.tombstone(elem)
	return &Delta{
		Type:  Deleted,
		Index: index,
		Value: elem.value,
	}, nil
}

// Content returns the visible content as a string.
func (s *Sequence) Content() string {
	return strings.Join(s.VisibleContent(), "")
}

// VisibleContent returns the values of the visible elements in order.
func (s *Sequence) VisibleContent() []string {
	values := make([]string, 0, s.Len())
	for e := s.head.next; e != nil; e = e.next {
		if !e.removed {
			values = append(values, e.value)
		}
	}
	return values
}

// Elements returns all elements including tombstones in sequence order.
func (s *Sequence) Elements() []*Element {
	var elems []*Element
	for e := s.head.next; e != nil; e = e.next {
		elems = append(elems, e)
	}
	return elems
}

// Tombstones returns the number of removed elements retained for merging.
func (s *Sequence) Tombstones() int {
	return len(s.elements) - 1 - s.Len()
}

// ToTestString returns a string containing the metadata of the elements
// for debugging purpose.
func (s *Sequence) ToTestString() string {
	var sb strings.Builder
	for e := s.head.next; e != nil; e = e.next {
		sb.WriteString(e.ToTestString())
	}
	return sb.String()
}

func (s *Sequence) insertAfter(prev, elem *Element) {
	next := prev.next
	prev.next = elem
	elem.prev = prev
	elem.next = next
	if next != nil {
		next.prev = elem
	}

	s.index.InsertAfter(prev.indexNode, elem.indexNode)
	s.elements[elem.id] = elem
}

func (s *Sequence) tombstone(elem *Element) {
	elem.removed = true
	s.index.Reweigh(elem.indexNode)
}
