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
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/server/backend/housekeeping"
	"github.com/datacanvas/collab/server/profiling/prometheus"
)

func TestBackend(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	hskp := &housekeeping.Config{Interval: "1h", MaxConcurrentSaves: 2}

	t.Run("memory backend test", func(t *testing.T) {
		be, err := backend.New(&backend.Config{
			SnapshotStore:     backend.StoreMemory,
			SnapshotCacheSize: 8,
			Hostname:          "node-a",
		}, nil, nil, hskp, metrics)
		require.NoError(t, err)
		assert.Equal(t, "node-a", be.NodeID)

		require.NoError(t, be.Start())
		k, err := key.ForCell("nb1", "c1")
		require.NoError(t, err)
		require.NoError(t, be.Snapshots.Save(context.Background(), k, []byte("{}")))
		assert.NoError(t, be.Shutdown())
	})

	t.Run("random node id test", func(t *testing.T) {
		be, err := backend.New(&backend.Config{
			SnapshotStore:     backend.StoreMemory,
			SnapshotCacheSize: 8,
		}, nil, nil, hskp, metrics)
		require.NoError(t, err)
		assert.NotEmpty(t, be.NodeID)
		assert.NoError(t, be.Shutdown())
	})

	t.Run("open bolt store test", func(t *testing.T) {
		store, err := backend.OpenStore(&backend.Config{
			SnapshotStore: backend.StoreBolt,
			SnapshotPath:  filepath.Join(t.TempDir(), "snapshots.db"),
		}, nil)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("mongo store without config test", func(t *testing.T) {
		_, err := backend.OpenStore(&backend.Config{SnapshotStore: backend.StoreMongo}, nil)
		assert.ErrorIs(t, err, backend.ErrInvalidSnapshotStore)
	})
}
