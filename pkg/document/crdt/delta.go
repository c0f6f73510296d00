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

// DeltaType is the kind of change a Delta describes.
type DeltaType int

const (
	// Inserted means that Value became visible at Index.
	Inserted DeltaType = iota

	// Deleted means that Value was removed from Index.
	Deleted
)

// String returns the name of the delta type.
func (t DeltaType) String() string {
	if t == Deleted {
		return "delete"
	}
	return "insert"
}

// Delta is a change of the visible content. An editor can patch its buffer
// by applying the deltas of an operation batch in order.
type Delta struct {
	Type  DeltaType
	Index int
	Value string
}
