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


// Package bolt implements the snapshot store on a bbolt file.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	gotime "time"

	bolt "go.etcd.io/bbolt"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/snapshot"
)

var bucketSnapshots = []byte("snapshots")

// DefaultOpenTimeout is the time to wait for the file lock of the database.
const DefaultOpenTimeout = 5 * gotime.Second

// Store is a snapshot store backed by a single bbolt file. Each value is the
// save time in unix nanoseconds followed by the snapshot bytes.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database file at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: DefaultOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshots)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Save replaces the snapshot of the given document.
func (s *Store) Save(_ context.Context, k key.Key, data []byte) error {
	value := make([]byte, 8+len(data))
	binary.BigEndian.PutUint64(value, uint64(gotime.Now().UnixNano()))
	copy(value[8:], data)

	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(k.String()), value)
	}); err != nil {
		return fmt.Errorf("save snapshot of %s: %w", k, err)
	}
	return nil
}

// Load returns the snapshot of the given document.
func (s *Store) Load(_ context.Context, k key.Key) ([]byte, error) {
	var data []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketSnapshots).Get([]byte(k.String()))
		if value == nil {
			return fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
		}

		// values are only valid inside the transaction
		data = make([]byte, len(value)-8)
		copy(data, value[8:])
		return nil
	}); err != nil {
		return nil, err
	}

	return data, nil
}

// List returns the summaries of the stored snapshots ordered by key.
func (s *Store) List(_ context.Context) ([]*types.SnapshotInfo, error) {
	var infos []*types.SnapshotInfo
	if err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).ForEach(func(k, v []byte) error {
			infos = append(infos, &types.SnapshotInfo{
				Key:       key.Key(k),
				Size:      len(v) - 8,
				UpdatedAt: gotime.Unix(0, int64(binary.BigEndian.Uint64(v))),
			})
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return infos, nil
}

// Delete removes the snapshot of the given document.
func (s *Store) Delete(_ context.Context, k key.Key) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSnapshots)
		if bucket.Get([]byte(k.String())) == nil {
			return fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
		}
		return bucket.Delete([]byte(k.String()))
	})
}

// Close closes the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close bolt: %w", err)
	}
	return nil
}
