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
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/api/converter"
	"github.com/datacanvas/collab/client"
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	"github.com/datacanvas/collab/test/helper"
)

func TestText(t *testing.T) {
	endpoint := helper.Endpoint(defaultRelay)

	t.Run("concurrent insertions converge test", func(t *testing.T) {
		k := helper.TestDocKey(t)
		c1 := helper.NewClient(t, endpoint, "ada")
		c2 := helper.NewClient(t, endpoint, "bob")
		helper.AttachAndSync(t, c1, k)
		helper.AttachAndSync(t, c2, k)

		require.NoError(t, c1.Edit(k, client.Insert(0, "hi")))
		require.NoError(t, c2.Edit(k, client.Insert(0, "yo")))

		assert.Eventually(t, func() bool {
			text := helper.Content(t, c1, k)
			return len(text) == 4 && text == helper.Content(t, c2, k)
		}, helper.WaitFor, helper.Tick)
		assert.Contains(t, []string{"hiyo", "yohi"}, helper.Content(t, c1, k))

		relayed, err := defaultRelay.Content(k)
		assert.NoError(t, err)
		assert.Equal(t, helper.Content(t, c1, k), relayed)
	})

	t.Run("concurrent insertion and deletion test", func(t *testing.T) {
		k := helper.TestDocKey(t)
		c1 := helper.NewClient(t, endpoint, "ada")
		c2 := helper.NewClient(t, endpoint, "bob")
		helper.AttachAndSync(t, c1, k)
		helper.AttachAndSync(t, c2, k)

		require.NoError(t, c1.Edit(k, client.Insert(0, "hello")))
		require.Eventually(t, func() bool {
			return helper.Content(t, c2, k) == "hello"
		}, helper.WaitFor, helper.Tick)

		require.NoError(t, c1.Edit(k, client.Delete(0, 1)))
		require.NoError(t, c2.Edit(k, client.Insert(5, "!")))

		assert.Eventually(t, func() bool {
			return helper.Content(t, c1, k) == "ello!" && helper.Content(t, c2, k) == "ello!"
		}, helper.WaitFor, helper.Tick)
	})

	t.Run("late joiner catches up test", func(t *testing.T) {
		k := helper.TestDocKey(t)
		c1 := helper.NewClient(t, endpoint, "ada")
		helper.AttachAndSync(t, c1, k)
		require.NoError(t, c1.Edit(k, client.Insert(0, "notebook")))
		require.Eventually(t, func() bool {
			relayed, err := defaultRelay.Content(k)
			return err == nil && relayed == "notebook"
		}, helper.WaitFor, helper.Tick)

		c2 := helper.NewClient(t, endpoint, "bob")
		helper.AttachAndSync(t, c2, k)
		assert.Equal(t, "notebook", helper.Content(t, c2, k))
	})

	t.Run("duplicated and reordered frames test", func(t *testing.T) {
		k := helper.TestDocKey(t)
		c1 := helper.NewClient(t, endpoint, "ada")
		helper.AttachAndSync(t, c1, k)

		doc := document.New(k, time.NewActorID())
		ops, err := doc.InsertText(0, "abc")
		require.NoError(t, err)

		reversed := make([]operations.Operation, 0, len(ops))
		for i := len(ops) - 1; i >= 0; i-- {
			reversed = append(reversed, ops[i])
		}

		conn, _, err := websocket.DefaultDialer.Dial("ws://"+defaultRelay.RelayAddr()+"/rooms/"+k.String(), nil)
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, conn.Close())
		}()

		for _, batch := range [][]operations.Operation{reversed[:1], reversed, ops[:1]} {
			data, err := converter.MessageToBytes(converter.ToUpdate(k, batch))
			require.NoError(t, err)
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
		}

		assert.Eventually(t, func() bool {
			relayed, err := defaultRelay.Content(k)
			return err == nil && relayed == "abc" && helper.Content(t, c1, k) == "abc"
		}, helper.WaitFor, helper.Tick)
	})
}
