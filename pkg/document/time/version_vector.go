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

package time

import (
	"sort"
	"strconv"
	"strings"
)

// VersionVector is the state vector of a replica: for each replica it records
// the highest counter that has been integrated without gaps.
type VersionVector map[ActorID]uint64

// NewVersionVector creates a new instance of VersionVector.
func NewVersionVector() VersionVector {
	return make(VersionVector)
}

// Get gets the version of the given actor.
// Returns the version and whether the actor exists in the vector.
func (v VersionVector) Get(id ActorID) (uint64, bool) {
	version, exists := v[id]
	return version, exists
}

// VersionOf returns the version of the given actor.
func (v VersionVector) VersionOf(id ActorID) uint64 {
	return v[id]
}

// Set sets the given actor's version. Versions never move backwards.
func (v VersionVector) Set(id ActorID, version uint64) {
	if version > v[id] {
		v[id] = version
	}
}

// Covers returns whether the operation identified by the given ticket has
// already been integrated by the owner of this vector.
func (v VersionVector) Covers(t Ticket) bool {
	return t.counter <= v[t.actorID]
}

// DeepCopy creates a deep copy of this VersionVector.
func (v VersionVector) DeepCopy() VersionVector {
	copied := NewVersionVector()
	for k, val := range v {
		copied[k] = val
	}
	return copied
}

// Keys returns the actors of this vector in ascending order.
func (v VersionVector) Keys() []ActorID {
	keys := make([]ActorID, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// AfterOrEqual returns whether this vector has integrated everything the
// other vector has.
func (v VersionVector) AfterOrEqual(other VersionVector) bool {
	for k, val := range other {
		if v[k] < val {
			return false
		}
	}

	return true
}

// Max modifies the receiver in-place to contain the maximum values between
// itself and the given version vector, and returns the modified receiver.
func (v VersionVector) Max(other VersionVector) VersionVector {
	for key, value := range other {
		if v[key] < value {
			v[key] = value
		}
	}

	return v
}

// Marshal returns a stable string encoding of this VersionVector.
func (v VersionVector) Marshal() string {
	builder := strings.Builder{}

	builder.WriteRune('{')
	for i, k := range v.Keys() {
		if i > 0 {
			builder.WriteRune(',')
		}
		builder.WriteString(k.String())
		builder.WriteRune(':')
		builder.WriteString(strconv.FormatUint(v[k], 10))
	}
	builder.WriteRune('}')

	return builder.String()
}
