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

package awareness

import (
	gotime "time"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/time"
)

// Cursor is a selection in a document, in visible indices.
type Cursor struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Meta is the display metadata of a collaborator. It is opaque to the
// tracker.
type Meta struct {
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	ColorLight string `json:"colorLight,omitempty"`
}

// Fields is the presence a client broadcasts. Every broadcast carries the
// whole state, so a newer broadcast replaces all fields at once.
type Fields struct {
	// DocumentKey is the document the client is focused on, if any.
	DocumentKey key.Key `json:"documentKey,omitempty"`

	// Cursor is the client's selection in DocumentKey, if any.
	Cursor *Cursor `json:"cursor,omitempty"`

	Meta Meta `json:"meta"`
}

// DeepCopy returns a copy of these fields.
func (f Fields) DeepCopy() Fields {
	copied := f
	if f.Cursor != nil {
		cursor := *f.Cursor
		copied.Cursor = &cursor
	}
	return copied
}

// State is the presence of one client as seen by this tracker.
type State struct {
	ClientID time.ActorID
	Fields   Fields
	Clock    uint64
	LastSeen gotime.Time
}

// Update is a broadcast of a client's presence. Nil Fields means that the
// client left.
type Update struct {
	ClientID time.ActorID
	Fields   *Fields
	Clock    uint64
}

// EventType is the kind of change an Event describes.
type EventType string

const (
	// Added means that a client appeared.
	Added EventType = "added"

	// Updated means that a known client changed its fields.
	Updated EventType = "updated"

	// Removed means that a client left or expired.
	Removed EventType = "removed"
)

// Event is a change of the set of active states.
type Event struct {
	Type     EventType
	ClientID time.ActorID
	State    State
}
