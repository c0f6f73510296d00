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


// Package testcases contains the test cases shared by the snapshot stores.
package testcases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/snapshot"
)

// RunSaveAndLoadTest runs the save and load tests for the given store.
func RunSaveAndLoadTest(t *testing.T, store snapshot.Store) {
	ctx := context.Background()
	k, err := key.ForCell("store", "c1")
	require.NoError(t, err)

	t.Run("load missing snapshot test", func(t *testing.T) {
		_, err := store.Load(ctx, k)
		assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	})

	t.Run("save replaces snapshot test", func(t *testing.T) {
		assert.NoError(t, store.Save(ctx, k, []byte(`{"v":1}`)))
		assert.NoError(t, store.Save(ctx, k, []byte(`{"v":2}`)))

		data, err := store.Load(ctx, k)
		assert.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(data))
	})

	t.Run("loaded bytes are not shared test", func(t *testing.T) {
		data, err := store.Load(ctx, k)
		require.NoError(t, err)
		data[0] = 'x'

		again, err := store.Load(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, `{"v":2}`, string(again))
	})

	t.Run("delete test", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, k))
		assert.ErrorIs(t, store.Delete(ctx, k), snapshot.ErrSnapshotNotFound)

		_, err := store.Load(ctx, k)
		assert.ErrorIs(t, err, snapshot.ErrSnapshotNotFound)
	})
}

// RunListTest runs the list tests for the given store. The store must not
// hold other snapshots.
func RunListTest(t *testing.T, store snapshot.Store) {
	ctx := context.Background()

	infos, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, infos, 0)

	var keys []key.Key
	for _, cell := range []string{"c2", "c1", "c3"} {
		k, err := key.ForCell("list", cell)
		require.NoError(t, err)
		keys = append(keys, k)
		require.NoError(t, store.Save(ctx, k, []byte(cell+cell)))
	}

	infos, err = store.List(ctx)
	assert.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "notebook-list.cell-c1", infos[0].Key.String())
	assert.Equal(t, "notebook-list.cell-c2", infos[1].Key.String())
	assert.Equal(t, "notebook-list.cell-c3", infos[2].Key.String())
	for _, info := range infos {
		assert.Equal(t, 4, info.Size)
		assert.False(t, info.UpdatedAt.IsZero())
	}

	for _, k := range keys {
		assert.NoError(t, store.Delete(ctx, k))
	}
}
