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

package types

import (
	gotime "time"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/time"
)

// Snapshot is the persisted form of a document. Restoring replays Ops in
// order, so the snapshot keeps tombstones and their delete operations.
type Snapshot struct {
	Key    key.Key            `json:"key"`
	Vector time.VersionVector `json:"vector"`
	Ops    []Operation        `json:"ops"`
}

// SnapshotInfo summarizes a stored snapshot.
type SnapshotInfo struct {
	// Key is the key of the document.
	Key key.Key

	// Size is the size of the encoded snapshot in bytes.
	Size int

	// UpdatedAt is the time when the snapshot was last saved.
	UpdatedAt gotime.Time
}
