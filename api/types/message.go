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

// Package types defines the frames exchanged between replicas and the relay.
package types

import (
	"github.com/datacanvas/collab/pkg/awareness"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/time"
)

// MessageType represents the type of the Message.
type MessageType string

const (
	// SyncRequest carries the state vector of the sender. The receiver
	// answers with the operations the sender is missing.
	SyncRequest MessageType = "sync-request"

	// SyncResponse carries the operations missing from a SyncRequest and the
	// state vector of the responder.
	SyncResponse MessageType = "sync-response"

	// Update carries operations produced by local edits.
	Update MessageType = "update"

	// Awareness carries the presence of one client.
	Awareness MessageType = "awareness"
)

// Valid returns whether the type is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case SyncRequest, SyncResponse, Update, Awareness:
		return true
	default:
		return false
	}
}

// Message is a frame of the room protocol. Which fields are set depends on
// the Type.
type Message struct {
	// Type is the type of the message.
	Type MessageType `json:"type"`

	// Key is the room the message belongs to.
	Key key.Key `json:"key"`

	// StateVector is the state vector of the sender of a SyncRequest or a
	// SyncResponse.
	StateVector time.VersionVector `json:"stateVector,omitempty"`

	// Ops are the operations of a SyncResponse or an Update.
	Ops []Operation `json:"ops,omitempty"`

	// ClientID, Fields and Clock describe an Awareness message. Nil Fields
	// means that the client left.
	ClientID time.ActorID      `json:"clientId,omitempty"`
	Fields   *awareness.Fields `json:"fields,omitempty"`
	Clock    uint64            `json:"clock,omitempty"`
}

// NewSyncRequest creates a SyncRequest for the given room.
func NewSyncRequest(k key.Key, vector time.VersionVector) *Message {
	return &Message{
		Type:        SyncRequest,
		Key:         k,
		StateVector: vector,
	}
}

// NewAwareness creates an Awareness message from the given update.
func NewAwareness(k key.Key, update awareness.Update) *Message {
	return &Message{
		Type:     Awareness,
		Key:      k,
		ClientID: update.ClientID,
		Fields:   update.Fields,
		Clock:    update.Clock,
	}
}

// AwarenessUpdate returns the awareness update carried by this message.
func (m *Message) AwarenessUpdate() awareness.Update {
	return awareness.Update{
		ClientID: m.ClientID,
		Fields:   m.Fields,
		Clock:    m.Clock,
	}
}

// OperationKind represents the kind of the Operation.
type OperationKind string

const (
	// InsertOperation creates an element.
	InsertOperation OperationKind = "insert"

	// DeleteOperation tombstones an element.
	DeleteOperation OperationKind = "delete"

	// SkipOperation uses up the counter of an operation that could not be
	// applied.
	SkipOperation OperationKind = "skip"
)

// Ticket is the wire form of an element id.
type Ticket struct {
	Counter uint64       `json:"counter"`
	Actor   time.ActorID `json:"actor"`
}

// Operation is the wire form of a document operation. Absent origins are
// left nil.
type Operation struct {
	Kind   OperationKind `json:"kind"`
	ID     Ticket        `json:"id"`
	Value  string        `json:"value,omitempty"`
	Left   *Ticket       `json:"left,omitempty"`
	Right  *Ticket       `json:"right,omitempty"`
	Target *Ticket       `json:"target,omitempty"`
}
