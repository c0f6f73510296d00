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


// Package converter converts document operations and snapshots to the wire
// types and bytes, and vice versa.
package converter

import (
	"fmt"

	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/errors"
)

// ErrEncodeFailure is returned when a message or a snapshot cannot be
// encoded. Sending it again does not help.
var ErrEncodeFailure = errors.Internal("encode failure").WithCode("ErrEncodeFailure")

// malformed wraps a decoding failure so that callers can treat it like any
// other malformed operation.
func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), operations.ErrMalformedOperation)
}
