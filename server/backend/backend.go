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


// Package backend provides the backend of the relay. It owns the snapshot
// store, the broker shared with other nodes and the housekeeping service.
package backend

import (
	"errors"
	"fmt"

	"github.com/lithammer/shortuuid/v4"

	"github.com/datacanvas/collab/internal/logging"
	"github.com/datacanvas/collab/server/backend/broker"
	"github.com/datacanvas/collab/server/backend/housekeeping"
	"github.com/datacanvas/collab/server/backend/snapshot"
	"github.com/datacanvas/collab/server/backend/snapshot/bolt"
	"github.com/datacanvas/collab/server/backend/snapshot/memory"
	"github.com/datacanvas/collab/server/backend/snapshot/mongo"
	"github.com/datacanvas/collab/server/profiling/prometheus"
)

// Backend manages the resources the relay needs besides its connections.
type Backend struct {
	Config *Config

	// NodeID identifies this relay among the nodes sharing the broker.
	NodeID string

	// Snapshots is the cached snapshot store.
	Snapshots *snapshot.Cached
	// Broker shares frames with the other nodes.
	Broker broker.Broker
	// Housekeeping runs the periodic tasks.
	Housekeeping *housekeeping.Housekeeping

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
}

// New creates a new instance of Backend. A nil redisConf selects the memory
// broker, which only serves a single node.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	redisConf *broker.RedisConfig,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Decide the node id.
	nodeID := conf.Hostname
	if nodeID == "" {
		nodeID = shortuuid.New()
	}

	// 02. Open the snapshot store and put the cache in front of it.
	store, err := OpenStore(conf, mongoConf)
	if err != nil {
		return nil, err
	}
	snapshots, err := snapshot.NewCached(store, conf.SnapshotCacheSize, int64(housekeepingConf.MaxConcurrentSaves))
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	// 03. Connect the broker.
	var b broker.Broker
	if redisConf != nil {
		b, err = broker.DialRedis(redisConf, nodeID)
		if err != nil {
			return nil, errors.Join(err, snapshots.Close())
		}
	} else {
		b = broker.NewMemory(nodeID)
	}

	// 04. Create the housekeeping service. Tasks are registered by the rooms.
	housekeeper, err := housekeeping.New(housekeepingConf)
	if err != nil {
		return nil, errors.Join(err, snapshots.Close(), b.Close())
	}

	brokerInfo := "memory"
	if redisConf != nil {
		brokerInfo = redisConf.Address
	}
	logging.DefaultLogger().Infof(
		"backend created: node: %s, store: %s, broker: %s",
		nodeID,
		conf.SnapshotStore,
		brokerInfo,
	)

	return &Backend{
		Config:       conf,
		NodeID:       nodeID,
		Snapshots:    snapshots,
		Broker:       b,
		Housekeeping: housekeeper,
		Metrics:      metrics,
	}, nil
}

// OpenStore opens the snapshot store selected by the config.
func OpenStore(conf *Config, mongoConf *mongo.Config) (snapshot.Store, error) {
	switch conf.SnapshotStore {
	case StoreBolt:
		return bolt.Open(conf.SnapshotPath)
	case StoreMongo:
		if mongoConf == nil {
			return nil, fmt.Errorf("mongo store without mongo config: %w", ErrInvalidSnapshotStore)
		}
		return mongo.Dial(mongoConf)
	case StoreMemory:
		return memory.New()
	default:
		return nil, fmt.Errorf("%s: %w", conf.SnapshotStore, ErrInvalidSnapshotStore)
	}
}

// Start starts the background services.
func (b *Backend) Start() error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	if err := b.Housekeeping.Stop(); err != nil {
		return err
	}

	if err := errors.Join(b.Broker.Close(), b.Snapshots.Close()); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
