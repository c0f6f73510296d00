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

// Package key derives the network channel keys of notebooks and cells.
package key

import (
	"fmt"
	"strings"

	"github.com/datacanvas/collab/internal/validation"
	"github.com/datacanvas/collab/pkg/errors"
)

const (
	// Splitter separates the notebook and the cell segments of a key.
	Splitter = "."

	notebookPrefix = "notebook-"
	cellPrefix     = "cell-"
)

// ErrInvalidKey is returned when a key or one of its segments is invalid.
var ErrInvalidKey = errors.InvalidArgument("invalid key").WithCode("ErrInvalidKey")

// Key is the room key of a document or of a notebook's awareness channel.
// Document keys are scoped to a cell; awareness keys to the whole notebook.
type Key string

// ForNotebook returns the awareness room key of the given notebook.
func ForNotebook(notebookID string) (Key, error) {
	if err := validateSegment(notebookID); err != nil {
		return "", err
	}

	return Key(notebookPrefix + notebookID), nil
}

// ForCell returns the document room key of the given cell.
func ForCell(notebookID, cellID string) (Key, error) {
	nb, err := ForNotebook(notebookID)
	if err != nil {
		return "", err
	}
	if err := validateSegment(cellID); err != nil {
		return "", err
	}

	return Key(string(nb) + Splitter + cellPrefix + cellID), nil
}

// Parse validates the given string and returns it as a Key.
func Parse(s string) (Key, error) {
	k := Key(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

// String returns the string representation of this key.
func (k Key) String() string {
	return string(k)
}

// IsCell returns whether this key names a cell document.
func (k Key) IsCell() bool {
	return strings.Contains(string(k), Splitter+cellPrefix)
}

// Notebook returns the awareness room key of the notebook this key belongs to.
func (k Key) Notebook() Key {
	nb, _, _ := strings.Cut(string(k), Splitter)
	return Key(nb)
}

// NotebookID returns the notebook segment without its prefix.
func (k Key) NotebookID() string {
	return strings.TrimPrefix(string(k.Notebook()), notebookPrefix)
}

// CellID returns the cell segment without its prefix, or an empty string for
// a notebook key.
func (k Key) CellID() string {
	_, cell, found := strings.Cut(string(k), Splitter)
	if !found {
		return ""
	}
	return strings.TrimPrefix(cell, cellPrefix)
}

// Validate checks that the key is one produced by ForNotebook or ForCell.
func (k Key) Validate() error {
	if err := validation.ValidateValue(string(k), "required,case_sensitive_slug,max=255"); err != nil {
		return fmt.Errorf("%s: %s: %w", k, err, ErrInvalidKey)
	}

	nb, cell, found := strings.Cut(string(k), Splitter)
	if !strings.HasPrefix(nb, notebookPrefix) {
		return fmt.Errorf("%s: missing notebook prefix: %w", k, ErrInvalidKey)
	}
	if err := validateSegment(strings.TrimPrefix(nb, notebookPrefix)); err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	if !found {
		return nil
	}

	if !strings.HasPrefix(cell, cellPrefix) {
		return fmt.Errorf("%s: missing cell prefix: %w", k, ErrInvalidKey)
	}
	if err := validateSegment(strings.TrimPrefix(cell, cellPrefix)); err != nil {
		return fmt.Errorf("%s: %w", k, err)
	}
	return nil
}

func validateSegment(segment string) error {
	if err := validation.ValidateValue(segment, "required,key_segment,max=100"); err != nil {
		return fmt.Errorf("segment %q: %s: %w", segment, err.(validation.Violation).Description, ErrInvalidKey)
	}
	return nil
}
