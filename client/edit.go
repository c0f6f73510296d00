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


package client

import (
	"github.com/datacanvas/collab/pkg/document"
	"github.com/datacanvas/collab/pkg/document/operations"
)

// EditOp is a local edit of a document, in visible indices.
type EditOp interface {
	apply(doc *document.Document) ([]operations.Operation, error)
}

type insertOp struct {
	index int
	text  string
}

func (o insertOp) apply(doc *document.Document) ([]operations.Operation, error) {
	return doc.InsertText(o.index, o.text)
}

type deleteOp struct {
	index  int
	length int
}

func (o deleteOp) apply(doc *document.Document) ([]operations.Operation, error) {
	return doc.DeleteRange(o.index, o.length)
}

// Insert inserts the text at the given index, one element per rune.
func Insert(index int, text string) EditOp {
	return insertOp{index: index, text: text}
}

// Delete removes length elements starting at the given index.
func Delete(index, length int) EditOp {
	return deleteOp{index: index, length: length}
}
