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


package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/datacanvas/collab/server"
	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/server/backend/broker"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, "localhost:"+strconv.Itoa(server.DefaultRelayPort), conf.RelayAddr())
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, server.DefaultRelayPort, conf.Relay.Port)
		assert.Equal(t, server.DefaultSnapshotStore, conf.Backend.SnapshotStore)
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		assert.NoError(t, err)

		assert.Equal(t, server.DefaultRelayPort, conf.Relay.Port)
		assert.Equal(t, server.DefaultRelayPeerQueueSize, conf.Relay.PeerQueueSize)
		assert.Equal(t, int64(server.DefaultRelayMaxFrameSize), conf.Relay.MaxFrameSize)
		assert.Equal(t, server.DefaultRelayShutdownTimeout, conf.Relay.ParseShutdownTimeout())

		interval, err := conf.Housekeeping.ParseInterval()
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultHousekeepingInterval, interval)

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultMongoConnectionTimeout, connTimeout)
		assert.Equal(t, server.DefaultMongoConnectionURI, conf.Mongo.ConnectionURI)
		assert.Equal(t, server.DefaultMongoDatabase, conf.Mongo.Database)

		pingTimeout, err := time.ParseDuration(conf.Mongo.PingTimeout)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultMongoPingTimeout, pingTimeout)

		assert.Nil(t, conf.Redis)
		assert.NoError(t, conf.Validate())
	})

	t.Run("fill default values test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "partial.yml")
		assert.NoError(t, os.WriteFile(path, []byte("Backend:\n  SnapshotStore: bolt\nRedis:\n  Address: localhost:6379\n"), 0o600))

		conf, err := server.NewConfigFromFile(path)
		assert.NoError(t, err)
		assert.Equal(t, server.DefaultRelayPort, conf.Relay.Port)
		assert.Equal(t, backend.StoreBolt, conf.Backend.SnapshotStore)
		assert.Equal(t, server.DefaultSnapshotPath, conf.Backend.SnapshotPath)
		assert.Equal(t, broker.DefaultChannelPrefix, conf.Redis.ChannelPrefix)
		assert.Nil(t, conf.Mongo)
		assert.NoError(t, conf.Validate())
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("mongo store without mongo section test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Backend.SnapshotStore = backend.StoreMongo
		assert.ErrorIs(t, conf.Validate(), backend.ErrInvalidSnapshotStore)
	})

	t.Run("invalid redis section test", func(t *testing.T) {
		conf := server.NewConfig()
		conf.Redis = &broker.RedisConfig{}
		assert.ErrorIs(t, conf.Validate(), broker.ErrEmptyAddress)
	})
}
