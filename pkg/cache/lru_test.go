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


package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Run("stats test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](2, "test")
		require.NoError(t, err)
		assert.Equal(t, "test", c.Name())
		assert.Equal(t, float64(0), c.Stats().HitRate())

		c.Add("a", 1)
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = c.Get("b")
		assert.False(t, ok)

		assert.Equal(t, int64(1), c.Stats().Hits())
		assert.Equal(t, int64(1), c.Stats().Misses())
		assert.Equal(t, 0.5, c.Stats().HitRate())
	})

	t.Run("eviction test", func(t *testing.T) {
		c, err := cache.NewLRU[string, int](2, "test")
		require.NoError(t, err)

		c.Add("a", 1)
		c.Add("b", 2)
		_, _ = c.Get("a")
		c.Add("c", 3)

		assert.Equal(t, 2, c.Len())
		_, ok := c.Get("b")
		assert.False(t, ok)
		_, ok = c.Get("a")
		assert.True(t, ok)

		c.Remove("a")
		_, ok = c.Get("a")
		assert.False(t, ok)
	})

	t.Run("invalid size test", func(t *testing.T) {
		_, err := cache.NewLRU[string, int](0, "test")
		assert.Error(t, err)
	})
}
