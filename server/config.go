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


package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datacanvas/collab/server/backend"
	"github.com/datacanvas/collab/server/backend/broker"
	"github.com/datacanvas/collab/server/backend/housekeeping"
	"github.com/datacanvas/collab/server/backend/snapshot/mongo"
	"github.com/datacanvas/collab/server/profiling"
	"github.com/datacanvas/collab/server/rooms"
)

// Below are the values of the default values of the relay config.
const (
	DefaultRelayPort            = rooms.DefaultPort
	DefaultRelayMaxConnections  = rooms.DefaultMaxConnections
	DefaultRelayPeerQueueSize   = rooms.DefaultPeerQueueSize
	DefaultRelayMaxFrameSize    = rooms.DefaultMaxFrameSize
	DefaultRelayShutdownTimeout = rooms.DefaultShutdownTimeout

	DefaultProfilingPort = profiling.DefaultPort

	DefaultHousekeepingInterval           = 30 * time.Second
	DefaultHousekeepingTaskTimeout        = time.Minute
	DefaultHousekeepingMaxConcurrentSaves = 8

	DefaultSnapshotStore     = backend.StoreMemory
	DefaultSnapshotPath      = "collab.db"
	DefaultSnapshotCacheSize = 1000
	DefaultHostname          = ""

	DefaultMongoConnectionURI     = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout = mongo.DefaultConnectionTimeout
	DefaultMongoPingTimeout       = mongo.DefaultPingTimeout
	DefaultMongoDatabase          = mongo.DefaultDatabase

	DefaultRedisChannelPrefix = broker.DefaultChannelPrefix
	DefaultRedisDialTimeout   = broker.DefaultDialTimeout
)

// Config is the configuration for creating a Relay instance.
type Config struct {
	Relay        *rooms.Config        `yaml:"Relay"`
	Profiling    *profiling.Config    `yaml:"Profiling"`
	Housekeeping *housekeeping.Config `yaml:"Housekeeping"`
	Backend      *backend.Config      `yaml:"Backend"`
	Mongo        *mongo.Config        `yaml:"Mongo"`
	Redis        *broker.RedisConfig  `yaml:"Redis"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRelayPort, DefaultProfilingPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := &Config{}
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RelayAddr returns the address of the relay.
func (c *Config) RelayAddr() string {
	return fmt.Sprintf("localhost:%d", c.Relay.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.Relay.Validate(); err != nil {
		return err
	}

	if err := c.Profiling.Validate(); err != nil {
		return err
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Backend.SnapshotStore == backend.StoreMongo && c.Mongo == nil {
		return fmt.Errorf(`"%s" store without Mongo section: %w`, c.Backend.SnapshotStore, backend.ErrInvalidSnapshotStore)
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.Relay == nil {
		c.Relay = &rooms.Config{}
	}
	if c.Relay.Port == 0 {
		c.Relay.Port = DefaultRelayPort
	}
	if c.Relay.PeerQueueSize == 0 {
		c.Relay.PeerQueueSize = DefaultRelayPeerQueueSize
	}
	if c.Relay.MaxFrameSize == 0 {
		c.Relay.MaxFrameSize = DefaultRelayMaxFrameSize
	}
	if c.Relay.ShutdownTimeout == "" {
		c.Relay.ShutdownTimeout = DefaultRelayShutdownTimeout.String()
	}

	if c.Profiling == nil {
		c.Profiling = &profiling.Config{}
	}
	if c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Housekeeping == nil {
		c.Housekeeping = &housekeeping.Config{}
	}
	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.TaskTimeout == "" {
		c.Housekeeping.TaskTimeout = DefaultHousekeepingTaskTimeout.String()
	}
	if c.Housekeeping.MaxConcurrentSaves == 0 {
		c.Housekeeping.MaxConcurrentSaves = DefaultHousekeepingMaxConcurrentSaves
	}

	if c.Backend == nil {
		c.Backend = &backend.Config{}
	}
	if c.Backend.SnapshotStore == "" {
		c.Backend.SnapshotStore = DefaultSnapshotStore
	}
	if c.Backend.SnapshotStore == backend.StoreBolt && c.Backend.SnapshotPath == "" {
		c.Backend.SnapshotPath = DefaultSnapshotPath
	}
	if c.Backend.SnapshotCacheSize == 0 {
		c.Backend.SnapshotCacheSize = DefaultSnapshotCacheSize
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.Database == "" {
			c.Mongo.Database = DefaultMongoDatabase
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
	}

	if c.Redis != nil {
		if c.Redis.ChannelPrefix == "" {
			c.Redis.ChannelPrefix = DefaultRedisChannelPrefix
		}
		if c.Redis.DialTimeout == "" {
			c.Redis.DialTimeout = DefaultRedisDialTimeout.String()
		}
	}
}

func newConfig(port int, profilingPort int) *Config {
	return &Config{
		Relay: &rooms.Config{
			Port:            port,
			MaxConnections:  DefaultRelayMaxConnections,
			PeerQueueSize:   DefaultRelayPeerQueueSize,
			MaxFrameSize:    DefaultRelayMaxFrameSize,
			ShutdownTimeout: DefaultRelayShutdownTimeout.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Housekeeping: &housekeeping.Config{
			Interval:           DefaultHousekeepingInterval.String(),
			TaskTimeout:        DefaultHousekeepingTaskTimeout.String(),
			MaxConcurrentSaves: DefaultHousekeepingMaxConcurrentSaves,
		},
		Backend: &backend.Config{
			SnapshotStore:     DefaultSnapshotStore,
			SnapshotCacheSize: DefaultSnapshotCacheSize,
			Hostname:          DefaultHostname,
		},
	}
}
