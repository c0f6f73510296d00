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


// Package broker shares room frames between relay nodes.
package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datacanvas/collab/pkg/document/key"
)

// Handler is called with the frames that other nodes published to a room.
type Handler func(data []byte)

// Subscription is the registration of a Handler to a room.
type Subscription interface {
	// Close stops the delivery of frames to the handler.
	Close() error
}

// Broker delivers the frames published by one node to the subscribers on
// every other node. A node never receives its own frames.
type Broker interface {
	// Publish sends the frame to the room on the other nodes.
	Publish(ctx context.Context, room key.Key, data []byte) error

	// Subscribe registers the handler for the frames of the room.
	Subscribe(ctx context.Context, room key.Key, handler Handler) (Subscription, error)

	// Close releases the resources of the broker.
	Close() error
}

// envelope is the payload of a published frame.
type envelope struct {
	Node string `json:"node"`
	Data []byte `json:"data"`
}

func encode(node string, data []byte) ([]byte, error) {
	encoded, err := json.Marshal(envelope{Node: node, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

func decode(payload []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("unmarshal: %w", err)
	}

	return env, nil
}
