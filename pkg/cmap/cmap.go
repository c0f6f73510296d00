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


// Package cmap provides a concurrent map keyed by room names.
package cmap

import (
	"hash/maphash"
	"sync"
)

// bucketCount is the number of independently locked buckets.
const bucketCount = 32

type bucket[K ~string, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// Map is a concurrent map safe for use by many goroutines. Keys are spread
// over buckets so rooms touched by different connections rarely contend on
// the same lock.
type Map[K ~string, V any] struct {
	seed    maphash.Seed
	buckets [bucketCount]bucket[K, V]
}

// New creates a new Map.
func New[K ~string, V any]() *Map[K, V] {
	m := &Map[K, V]{seed: maphash.MakeSeed()}
	for i := range m.buckets {
		m.buckets[i].items = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) bucket(key K) *bucket[K, V] {
	return &m.buckets[maphash.String(m.seed, string(key))%bucketCount]
}

// Set stores the value under the key.
func (m *Map[K, V]) Set(key K, value V) {
	b := m.bucket(key)
	b.mu.Lock()
	b.items[key] = value
	b.mu.Unlock()
}

// Get returns the value stored under the key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	b := m.bucket(key)
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.items[key]
	return value, ok
}

// GetOrCreate returns the value under the key, storing the result of create
// first if there is none. The second result reports whether it was created.
func (m *Map[K, V]) GetOrCreate(key K, create func() V) (V, bool) {
	b := m.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if value, ok := b.items[key]; ok {
		return value, false
	}
	value := create()
	b.items[key] = value
	return value, true
}

// Delete removes the value under the key if cond, called under the bucket
// lock with the current value, returns true.
func (m *Map[K, V]) Delete(key K, cond func(value V, exists bool) bool) bool {
	b := m.bucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	value, ok := b.items[key]
	if !cond(value, ok) {
		return false
	}
	delete(b.items, key)
	return ok
}

// Len returns the number of stored values.
func (m *Map[K, V]) Len() int {
	count := 0
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.RLock()
		count += len(b.items)
		b.mu.RUnlock()
	}
	return count
}

// Range calls fn for every entry until it returns false. A bucket stays read
// locked while fn runs, so fn must not write to the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.RLock()
		for k, v := range b.items {
			if !fn(k, v) {
				b.mu.RUnlock()
				return
			}
		}
		b.mu.RUnlock()
	}
}

// Keys returns the stored keys in no particular order.
func (m *Map[K, V]) Keys() []K {
	var keys []K
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns the stored values in no particular order.
func (m *Map[K, V]) Values() []V {
	var values []V
	m.Range(func(_ K, value V) bool {
		values = append(values, value)
		return true
	})
	return values
}
