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

package crdt

import (
	"fmt"

	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/pkg/splay"
)

// Element is one atomic unit of a Sequence, a character or a token. It
// remembers its neighbors at the time it was created, which anchor it during
// merges. A removed element stays in the sequence as a tombstone.
type Element struct {
	id          time.Ticket
	value       string
	originLeft  time.Ticket
	originRight time.Ticket
	removed     bool

	indexNode *splay.Node[*Element]
	prev      *Element
	next      *Element
}

// NewElement creates a new Element. Absent origins are time.InitialTicket.
func NewElement(id time.Ticket, value string, originLeft, originRight time.Ticket) *Element {
	e := &Element{
		id:          id,
		value:       value,
		originLeft:  originLeft,
		originRight: originRight,
	}
	e.indexNode = splay.NewNode(e)
	return e
}

func newHead() *Element {
	e := &Element{removed: true}
	e.indexNode = splay.NewNode(e)
	return e
}

// ID returns the ticket that identifies this element.
func (e *Element) ID() time.Ticket {
	return e.id
}

// Value returns the content of this element, even if it is removed.
func (e *Element) Value() string {
	return e.value
}

// OriginLeft returns the element that preceded this one at creation.
func (e *Element) OriginLeft() time.Ticket {
	return e.originLeft
}

// OriginRight returns the element that followed this one at creation.
func (e *Element) OriginRight() time.Ticket {
	return e.originRight
}

// Removed returns whether this element is a tombstone.
func (e *Element) Removed() bool {
	return e.removed
}

// Len returns the visible length of this element: one, or zero once removed.
func (e *Element) Len() int {
	if e.removed {
		return 0
	}
	return 1
}

// String returns the visible content of this element.
func (e *Element) String() string {
	if e.removed {
		return ""
	}
	return e.value
}

// ToTestString returns a string containing the metadata of the element
// for debugging purpose.
func (e *Element) ToTestString() string {
	if e.removed {
		return fmt.Sprintf("{%s}", e.id.ToTestString())
	}
	return fmt.Sprintf("[%s]%s", e.id.ToTestString(), e.value)
}
