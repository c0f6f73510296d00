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


// Package cache provides an LRU cache that counts its hits and misses.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats holds the counters of a cache.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Hits returns the number of lookups that found a value.
func (s *Stats) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the number of lookups that found nothing.
func (s *Stats) Misses() int64 {
	return s.misses.Load()
}

// HitRate returns the ratio of hits to lookups in [0, 1].
func (s *Stats) HitRate() float64 {
	total := s.Hits() + s.Misses()
	if total == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(total)
}

// LRU is a fixed size LRU cache.
type LRU[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	stats Stats
	name  string
}

// NewLRU creates a cache holding at most size entries.
func NewLRU[K comparable, V any](size int, name string) (*LRU[K, V], error) {
	cache, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}

	return &LRU[K, V]{cache: cache, name: name}, nil
}

// Get returns the value of the key and counts the lookup.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	value, ok := c.cache.Get(key)
	if ok {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	return value, ok
}

// Add sets the value of the key, evicting the oldest entry when full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.cache.Add(key, value)
}

// Remove drops the key from the cache.
func (c *LRU[K, V]) Remove(key K) {
	c.cache.Remove(key)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	return c.cache.Len()
}

// Stats returns the counters of the cache.
func (c *LRU[K, V]) Stats() *Stats {
	return &c.stats
}

// Name returns the name of the cache.
func (c *LRU[K, V]) Name() string {
	return c.name
}
