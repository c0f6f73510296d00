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

// Package errors provides errors that carry a status code, so callers across
// the replica, the sync session and the relay can tell recoverable conditions
// from caller bugs without matching on messages.
package errors

import "fmt"

// StatusCode represents the error codes used throughout the module.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller passed something that can
	// never be applied, regardless of the state of the system.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that some requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeFailedPrecondition indicates that the operation was rejected because
	// the system is not in a state required for the operation's execution.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeInternal indicates that some invariants expected by the underlying
	// system have been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the peer or the network is currently
	// unavailable. This is usually temporary and recovered by reconnecting.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsRetryable returns true if the condition may resolve itself, such as a
// dropped connection that is re-established by the reconnect loop.
func (c StatusCode) IsRetryable() bool {
	return c == ErrCodeUnavailable
}
