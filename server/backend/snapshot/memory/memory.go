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


// Package memory implements the snapshot store on an in-memory database.
package memory

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/hashicorp/go-memdb"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/server/backend/snapshot"
)

const tblSnapshots = "snapshots"

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblSnapshots: {
			Name: tblSnapshots,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

type record struct {
	Key       string
	Data      []byte
	UpdatedAt gotime.Time
}

// Store is an in-memory snapshot store.
type Store struct {
	db *memdb.MemDB
}

// New returns a new in-memory snapshot store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &Store{db: db}, nil
}

// Save replaces the snapshot of the given document.
func (s *Store) Save(_ context.Context, k key.Key, data []byte) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	copied := make([]byte, len(data))
	copy(copied, data)
	if err := txn.Insert(tblSnapshots, &record{
		Key:       k.String(),
		Data:      copied,
		UpdatedAt: gotime.Now(),
	}); err != nil {
		return fmt.Errorf("save snapshot of %s: %w", k, err)
	}

	txn.Commit()
	return nil
}

// Load returns the snapshot of the given document.
func (s *Store) Load(_ context.Context, k key.Key) ([]byte, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblSnapshots, "id", k.String())
	if err != nil {
		return nil, fmt.Errorf("load snapshot of %s: %w", k, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
	}

	rec := raw.(*record)
	data := make([]byte, len(rec.Data))
	copy(data, rec.Data)
	return data, nil
}

// List returns the summaries of the stored snapshots ordered by key.
func (s *Store) List(_ context.Context) ([]*types.SnapshotInfo, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblSnapshots, "id")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var infos []*types.SnapshotInfo
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		rec := raw.(*record)
		infos = append(infos, &types.SnapshotInfo{
			Key:       key.Key(rec.Key),
			Size:      len(rec.Data),
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return infos, nil
}

// Delete removes the snapshot of the given document.
func (s *Store) Delete(_ context.Context, k key.Key) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblSnapshots, "id", k.String())
	if err != nil {
		return fmt.Errorf("delete snapshot of %s: %w", k, err)
	}
	if raw == nil {
		return fmt.Errorf("%s: %w", k, snapshot.ErrSnapshotNotFound)
	}
	if err := txn.Delete(tblSnapshots, raw); err != nil {
		return fmt.Errorf("delete snapshot of %s: %w", k, err)
	}

	txn.Commit()
	return nil
}

// Close does nothing for the in-memory store.
func (s *Store) Close() error {
	return nil
}
