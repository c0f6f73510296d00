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


package mongo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/server/backend/snapshot/mongo"
	"github.com/datacanvas/collab/server/backend/snapshot/testcases"
	"github.com/datacanvas/collab/test/helper"
)

func TestStore(t *testing.T) {
	config := &mongo.Config{
		ConnectionTimeout: "5s",
		ConnectionURI:     helper.MongoConnectionURI,
		Database:          helper.TestDBName(),
		PingTimeout:       "5s",
	}
	require.NoError(t, config.Validate())

	store, err := mongo.Dial(config)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, store.Close())
	}()

	infos, err := store.List(context.Background())
	require.NoError(t, err)
	for _, info := range infos {
		require.NoError(t, store.Delete(context.Background(), info.Key))
	}

	t.Run("RunSaveAndLoad test", func(t *testing.T) {
		testcases.RunSaveAndLoadTest(t, store)
	})

	t.Run("RunList test", func(t *testing.T) {
		testcases.RunListTest(t, store)
	})
}
