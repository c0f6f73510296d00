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


package backend

import (
	"errors"
	"fmt"
)

// Snapshot store kinds.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreMongo  = "mongo"
)

var (
	// ErrInvalidSnapshotStore is returned when the store kind is unknown.
	ErrInvalidSnapshotStore = errors.New("invalid snapshot store")

	// ErrEmptySnapshotPath is returned when a bolt store has no file path.
	ErrEmptySnapshotPath = errors.New("snapshot path cannot be empty")
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// SnapshotStore is the kind of the store snapshots are saved in. One of
	// "memory", "bolt" and "mongo".
	SnapshotStore string `yaml:"SnapshotStore"`

	// SnapshotPath is the file of the bolt store.
	SnapshotPath string `yaml:"SnapshotPath"`

	// SnapshotCacheSize is the number of snapshots kept in memory.
	SnapshotCacheSize int `yaml:"SnapshotCacheSize"`

	// Hostname is the node id of this relay. A random id is used when empty.
	Hostname string `yaml:"Hostname"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	switch c.SnapshotStore {
	case StoreMemory, StoreMongo:
	case StoreBolt:
		if c.SnapshotPath == "" {
			return ErrEmptySnapshotPath
		}
	default:
		return fmt.Errorf(
			`invalid argument "%s" for "--snapshot-store" flag: %w`,
			c.SnapshotStore,
			ErrInvalidSnapshotStore,
		)
	}

	if c.SnapshotCacheSize <= 0 {
		return fmt.Errorf(
			`invalid argument %d for "--snapshot-cache-size" flag`,
			c.SnapshotCacheSize,
		)
	}

	return nil
}
