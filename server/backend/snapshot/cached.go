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


package snapshot

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/datacanvas/collab/api/types"
	"github.com/datacanvas/collab/pkg/cache"
	"github.com/datacanvas/collab/pkg/document/key"
)

// Cached wraps a Store with an LRU cache of the latest snapshots and bounds
// the number of saves running against the underlying store.
type Cached struct {
	store Store
	cache *cache.LRU[key.Key, []byte]
	saves *semaphore.Weighted
}

// NewCached creates a Cached store keeping at most size snapshots and
// running at most maxSaves saves at a time.
func NewCached(store Store, size int, maxSaves int64) (*Cached, error) {
	c, err := cache.NewLRU[key.Key, []byte](size, "snapshot")
	if err != nil {
		return nil, fmt.Errorf("new snapshot cache: %w", err)
	}

	return &Cached{
		store: store,
		cache: c,
		saves: semaphore.NewWeighted(maxSaves),
	}, nil
}

// Save stores the snapshot and refreshes the cached copy.
func (c *Cached) Save(ctx context.Context, k key.Key, data []byte) error {
	if err := c.saves.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("save snapshot of %s: %w", k, err)
	}
	defer c.saves.Release(1)

	// drop the entry first so a failed save never leaves a stale copy
	c.cache.Remove(k)
	if err := c.store.Save(ctx, k, data); err != nil {
		return err
	}

	c.cache.Add(k, clone(data))
	return nil
}

// Load returns the cached snapshot or loads it from the store.
func (c *Cached) Load(ctx context.Context, k key.Key) ([]byte, error) {
	if data, ok := c.cache.Get(k); ok {
		return clone(data), nil
	}

	data, err := c.store.Load(ctx, k)
	if err != nil {
		return nil, err
	}

	c.cache.Add(k, clone(data))
	return data, nil
}

// List returns the summaries of the underlying store.
func (c *Cached) List(ctx context.Context) ([]*types.SnapshotInfo, error) {
	return c.store.List(ctx)
}

// Delete removes the snapshot from the cache and the store.
func (c *Cached) Delete(ctx context.Context, k key.Key) error {
	c.cache.Remove(k)
	return c.store.Delete(ctx, k)
}

// Close closes the underlying store.
func (c *Cached) Close() error {
	return c.store.Close()
}

// Stats returns the counters of the cache.
func (c *Cached) Stats() *cache.Stats {
	return c.cache.Stats()
}

// IsNotFound returns whether the error reports a missing snapshot.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound)
}

func clone(data []byte) []byte {
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied
}
