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


package broker_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/broker"
)

type inbox struct {
	mu     sync.Mutex
	frames []string
}

func (i *inbox) handle(data []byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.frames = append(i.frames, string(data))
}

func (i *inbox) received() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.frames...)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	room, err := key.ForCell("nb", "c1")
	require.NoError(t, err)
	other, err := key.ForCell("nb", "c2")
	require.NoError(t, err)

	t.Run("publish to other nodes test", func(t *testing.T) {
		bus := broker.NewBus()
		n1, n2, n3 := bus.Broker("n1"), bus.Broker("n2"), bus.Broker("n3")

		var in1, in2, in3 inbox
		s1, err := n1.Subscribe(ctx, room, in1.handle)
		require.NoError(t, err)
		s2, err := n2.Subscribe(ctx, room, in2.handle)
		require.NoError(t, err)
		s3, err := n3.Subscribe(ctx, other, in3.handle)
		require.NoError(t, err)

		assert.NoError(t, n1.Publish(ctx, room, []byte("hi")))
		assert.Empty(t, in1.received())
		assert.Equal(t, []string{"hi"}, in2.received())
		assert.Empty(t, in3.received())

		assert.NoError(t, s1.Close())
		assert.NoError(t, s2.Close())
		assert.NoError(t, s3.Close())
	})

	t.Run("closed subscription test", func(t *testing.T) {
		bus := broker.NewBus()
		n1, n2 := bus.Broker("n1"), bus.Broker("n2")

		var in inbox
		sub, err := n2.Subscribe(ctx, room, in.handle)
		require.NoError(t, err)
		assert.NoError(t, n1.Publish(ctx, room, []byte("a")))
		assert.NoError(t, sub.Close())
		assert.NoError(t, n1.Publish(ctx, room, []byte("b")))

		assert.Equal(t, []string{"a"}, in.received())
	})

	t.Run("single node test", func(t *testing.T) {
		b := broker.NewMemory("n1")
		var in inbox
		_, err := b.Subscribe(ctx, room, in.handle)
		require.NoError(t, err)

		assert.NoError(t, b.Publish(ctx, room, []byte("a")))
		assert.Empty(t, in.received())
		assert.NoError(t, b.Close())
	})
}

func TestRedisConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := broker.RedisConfig{
			Address:       "localhost:6379",
			ChannelPrefix: broker.DefaultChannelPrefix,
			DialTimeout:   "5s",
		}
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.Address = ""
		assert.ErrorIs(t, conf1.Validate(), broker.ErrEmptyAddress)

		conf2 := validConf
		conf2.ChannelPrefix = ""
		assert.ErrorIs(t, conf2.Validate(), broker.ErrEmptyChannelPrefix)

		conf3 := validConf
		conf3.DialTimeout = "5"
		assert.Error(t, conf3.Validate())
	})
}
