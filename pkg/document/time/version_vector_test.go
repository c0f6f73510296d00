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

package time_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datacanvas/collab/pkg/document/time"
)

func TestVersionVector(t *testing.T) {
	actor1 := time.ActorID(1)
	actor2 := time.ActorID(2)
	actor3 := time.ActorID(3)

	t.Run("max test", func(t *testing.T) {
		tests := []struct {
			name   string
			v1     time.VersionVector
			v2     time.VersionVector
			expect time.VersionVector
		}{
			{
				name:   "empty vectors",
				v1:     time.NewVersionVector(),
				v2:     time.NewVersionVector(),
				expect: time.NewVersionVector(),
			},
			{
				name:   "v1 has values, v2 is empty",
				v1:     time.VersionVector{actor1: 5, actor2: 3},
				v2:     time.NewVersionVector(),
				expect: time.VersionVector{actor1: 5, actor2: 3},
			},
			{
				name:   "both vectors have different keys",
				v1:     time.VersionVector{actor1: 5, actor2: 3},
				v2:     time.VersionVector{actor2: 4, actor3: 6},
				expect: time.VersionVector{actor1: 5, actor2: 4, actor3: 6},
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expect, tc.v1.DeepCopy().Max(tc.v2))
			})
		}
	})

	t.Run("set is monotonic test", func(t *testing.T) {
		v := time.NewVersionVector()
		v.Set(actor1, 3)
		v.Set(actor1, 2)
		assert.Equal(t, uint64(3), v.VersionOf(actor1))

		_, ok := v.Get(actor2)
		assert.False(t, ok)
	})

	t.Run("covers and after or equal test", func(t *testing.T) {
		v := time.VersionVector{actor1: 3, actor2: 1}
		assert.True(t, v.Covers(time.NewTicket(3, actor1)))
		assert.False(t, v.Covers(time.NewTicket(4, actor1)))
		assert.False(t, v.Covers(time.NewTicket(1, actor3)))

		assert.True(t, v.AfterOrEqual(time.VersionVector{actor1: 2}))
		assert.False(t, v.AfterOrEqual(time.VersionVector{actor3: 1}))
		assert.True(t, v.AfterOrEqual(time.NewVersionVector()))
	})

	t.Run("marshal is stable test", func(t *testing.T) {
		v := time.VersionVector{actor2: 1, actor1: 3}
		assert.Equal(t, "{0000000000000001:3,0000000000000002:1}", v.Marshal())
		assert.Equal(t, []time.ActorID{actor1, actor2}, v.Keys())
	})
}
