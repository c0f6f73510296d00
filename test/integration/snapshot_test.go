//go:build integration

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


package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/client"
	"github.com/datacanvas/collab/server"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/test/helper"
)

func TestSnapshot(t *testing.T) {
	t.Run("restore after the last peer leaves test", func(t *testing.T) {
		endpoint := helper.Endpoint(defaultRelay)
		k := helper.TestDocKey(t)

		c1 := helper.NewClient(t, endpoint, "ada")
		helper.AttachAndSync(t, c1, k)
		require.NoError(t, c1.Edit(k, client.Insert(0, "hello")))
		require.Eventually(t, func() bool {
			relayed, err := defaultRelay.Content(k)
			return err == nil && relayed == "hello"
		}, helper.WaitFor, helper.Tick)
		require.NoError(t, c1.Close())

		require.Eventually(t, func() bool {
			_, err := defaultRelay.LoadSnapshot(context.Background(), k)
			return err == nil
		}, helper.WaitFor, helper.Tick)

		c2 := helper.NewClient(t, endpoint, "bob")
		helper.AttachAndSync(t, c2, k)
		assert.Equal(t, "hello", helper.Content(t, c2, k))
	})

	t.Run("restore after restart test", func(t *testing.T) {
		conf := helper.TestConfig()
		conf.Backend.SnapshotStore = backend.StoreBolt
		conf.Backend.SnapshotPath = filepath.Join(t.TempDir(), "collab.db")
		k := helper.TestDocKey(t)

		first, err := server.New(conf)
		require.NoError(t, err)
		require.NoError(t, first.Start())
		require.NoError(t, helper.WaitForServerToStart(first.RelayAddr()))

		c1 := helper.NewClient(t, helper.Endpoint(first), "ada")
		helper.AttachAndSync(t, c1, k)
		require.NoError(t, c1.Edit(k, client.Insert(0, "persist")))
		require.Eventually(t, func() bool {
			relayed, err := first.Content(k)
			return err == nil && relayed == "persist"
		}, helper.WaitFor, helper.Tick)
		require.NoError(t, c1.Close())
		require.NoError(t, first.Shutdown(true))

		second := helper.StartRelay(t, conf)
		c2 := helper.NewClient(t, helper.Endpoint(second), "bob")
		helper.AttachAndSync(t, c2, k)
		assert.Equal(t, "persist", helper.Content(t, c2, k))
	})

	t.Run("periodic save keeps an open document test", func(t *testing.T) {
		endpoint := helper.Endpoint(defaultRelay)
		k := helper.TestDocKey(t)

		c1 := helper.NewClient(t, endpoint, "ada")
		helper.AttachAndSync(t, c1, k)
		require.NoError(t, c1.Edit(k, client.Insert(0, "draft")))

		assert.Eventually(t, func() bool {
			_, err := defaultRelay.LoadSnapshot(context.Background(), k)
			return err == nil
		}, helper.WaitFor, helper.Tick)
	})
}
