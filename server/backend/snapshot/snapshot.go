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


// Package snapshot provides the stores the relay persists document snapshots
// in.
package snapshot

import (
	"context"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/errors"
)

// ErrSnapshotNotFound is returned when no snapshot was saved for the key.
var ErrSnapshotNotFound = errors.NotFound("snapshot not found").WithCode("ErrSnapshotNotFound")

// Store persists the latest snapshot of each document.
type Store interface {
	// Save replaces the snapshot of the given document.
	Save(ctx context.Context, k key.Key, data []byte) error

	// Load returns the snapshot of the given document.
	Load(ctx context.Context, k key.Key) ([]byte, error)

	// List returns the summaries of the stored snapshots ordered by key.
	List(ctx context.Context) ([]*types.SnapshotInfo, error)

	// Delete removes the snapshot of the given document.
	Delete(ctx context.Context, k key.Key) error

	// Close releases the resources of the store.
	Close() error
}
