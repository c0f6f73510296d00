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
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const actorIDHexLen = 16

var (
	// InitialActorID represents the initial value of ActorID. It is never
	// assigned to a replica.
	InitialActorID = ActorID(0)

	// MaxActorID represents the maximum value of ActorID.
	MaxActorID = ActorID(^uint64(0))

	// ErrInvalidHexString is returned when the given string is not valid hex.
	ErrInvalidHexString = errors.New("invalid hex string")
)

// ActorID represents the unique ID of a replica. It is assigned once when the
// replica starts and is drawn at random, so collisions are not handled.
type ActorID uint64

// NewActorID creates a new random ActorID. It never returns InitialActorID.
func NewActorID() ActorID {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic(fmt.Sprintf("read random actor id: %s", err))
		}

		if id := ActorID(binary.BigEndian.Uint64(buf[:])); id != InitialActorID {
			return id
		}
	}
}

// ActorIDFromHex returns the ActorID represented by the hexadecimal string str.
func ActorIDFromHex(str string) (ActorID, error) {
	if str == "" || len(str) > actorIDHexLen {
		return InitialActorID, fmt.Errorf("%s: %w", str, ErrInvalidHexString)
	}

	decoded, err := strconv.ParseUint(str, 16, 64)
	if err != nil {
		return InitialActorID, fmt.Errorf("%s: %w", str, ErrInvalidHexString)
	}

	return ActorID(decoded), nil
}

// String returns the zero-padded hexadecimal encoding of ActorID.
func (id ActorID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Compare returns an integer comparing two ActorID.
// The result will be 0 if id==other, -1 if id < other, and +1 if id > other.
func (id ActorID) Compare(other ActorID) int {
	if id > other {
		return 1
	} else if id < other {
		return -1
	}

	return 0
}

// MarshalText encodes the ActorID as hex, so it can be used as a JSON map key.
func (id ActorID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the hexadecimal form produced by MarshalText.
func (id *ActorID) UnmarshalText(text []byte) error {
	decoded, err := ActorIDFromHex(string(text))
	if err != nil {
		return fmt.Errorf("unmarshal actor id: %w", err)
	}

	*id = decoded
	return nil
}
