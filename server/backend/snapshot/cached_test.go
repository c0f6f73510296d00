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


package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/snapshot"
	"github.com/datacanvas/collab/server/backend/snapshot/memory"
	"github.com/datacanvas/collab/server/backend/snapshot/testcases"
)

func TestCached(t *testing.T) {
	ctx := context.Background()

	t.Run("RunSaveAndLoad test", func(t *testing.T) {
		inner, err := memory.New()
		require.NoError(t, err)
		store, err := snapshot.NewCached(inner, 10, 2)
		require.NoError(t, err)

		testcases.RunSaveAndLoadTest(t, store)
	})

	t.Run("RunList test", func(t *testing.T) {
		inner, err := memory.New()
		require.NoError(t, err)
		store, err := snapshot.NewCached(inner, 10, 2)
		require.NoError(t, err)

		testcases.RunListTest(t, store)
	})

	t.Run("load hits cache test", func(t *testing.T) {
		inner, err := memory.New()
		require.NoError(t, err)
		store, err := snapshot.NewCached(inner, 10, 2)
		require.NoError(t, err)

		k, err := key.ForCell("nb", "c1")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, k, []byte("abc")))

		data, err := store.Load(ctx, k)
		assert.NoError(t, err)
		assert.Equal(t, "abc", string(data))
		assert.Equal(t, int64(1), store.Stats().Hits())

		// a snapshot removed behind the cache's back is still served
		require.NoError(t, inner.Delete(ctx, k))
		data, err = store.Load(ctx, k)
		assert.NoError(t, err)
		assert.Equal(t, "abc", string(data))

		assert.True(t, snapshot.IsNotFound(store.Delete(ctx, k)))
		_, err = store.Load(ctx, k)
		assert.True(t, snapshot.IsNotFound(err))
	})
}
