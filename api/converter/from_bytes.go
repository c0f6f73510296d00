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

	"github.com/datacanvas/collab/api/types"
)

// BytesToMessage decodes a frame. Frames that are not valid JSON, have an
// unknown type or an invalid room key are reported as malformed.
func BytesToMessage(bytes []byte) (*types.Message, error) {
	msg := &types.Message{}
	if err := json.Unmarshal(bytes, msg); err != nil {
		return nil, malformed("decode message: %s", err.Error())
	}
	if !msg.Type.Valid() {
		return nil, malformed("unknown message type %q", msg.Type)
	}
	if err := msg.Key.Validate(); err != nil {
		return nil, malformed("message key: %s", err.Error())
	}
	return msg, nil
}

// BytesToSnapshot decodes a snapshot.
func BytesToSnapshot(bytes []byte) (*types.Snapshot, error) {
	snapshot := &types.Snapshot{}
	if err := json.Unmarshal(bytes, snapshot); err != nil {
		return nil, malformed("decode snapshot: %s", err.Error())
	}
	if err := snapshot.Key.Validate(); err != nil {
		return nil, malformed("snapshot key: %s", err.Error())
	}
	return snapshot, nil
}
