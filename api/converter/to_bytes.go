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


package converter

import (
	"encoding/json"
	"fmt"

	"github.com/datacanvas/collab/api/types"
)

// MessageToBytes encodes the given message.
func MessageToBytes(msg *types.Message) ([]byte, error) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w: %w", msg.Type, ErrEncodeFailure, err)
	}
	return bytes, nil
}

// SnapshotToBytes encodes the given snapshot.
func SnapshotToBytes(snapshot *types.Snapshot) ([]byte, error) {
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w: %w", snapshot.Key, ErrEncodeFailure, err)
	}
	return bytes, nil
}
