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


package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datacanvas/collab/server/backend"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		conf    backend.Config
		wantErr error
		invalid bool
	}{
		{
			name: "memory store",
			conf: backend.Config{SnapshotStore: backend.StoreMemory, SnapshotCacheSize: 100},
		},
		{
			name: "mongo store",
			conf: backend.Config{SnapshotStore: backend.StoreMongo, SnapshotCacheSize: 1},
		},
		{
			name: "bolt store with path",
			conf: backend.Config{
				SnapshotStore:     backend.StoreBolt,
				SnapshotPath:      "snapshots.db",
				SnapshotCacheSize: 10,
			},
		},
		{
			name:    "bolt store without path",
			conf:    backend.Config{SnapshotStore: backend.StoreBolt, SnapshotCacheSize: 10},
			wantErr: backend.ErrEmptySnapshotPath,
		},
		{
			name:    "unknown store",
			conf:    backend.Config{SnapshotStore: "rocks", SnapshotCacheSize: 10},
			wantErr: backend.ErrInvalidSnapshotStore,
		},
		{
			name:    "empty cache",
			conf:    backend.Config{SnapshotStore: backend.StoreMemory},
			invalid: true,
		},
		{
			name:    "negative cache",
			conf:    backend.Config{SnapshotStore: backend.StoreMemory, SnapshotCacheSize: -1},
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.invalid:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
