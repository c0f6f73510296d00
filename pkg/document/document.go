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

// Package document provides the replicated document of a single cell: a
// sequence together with the state vector, the operation log and the queue
// of remote operations that arrived before their dependencies.
package document

import (
	"errors"
	"fmt"
	"sort"

	"github.com/datacanvas/collab/pkg/document/crdt"
	"github.com/datacanvas/collab/pkg/document/key"
	"github.com/datacanvas/collab/pkg/document/operations"
	"github.com/datacanvas/collab/pkg/document/time"
	collaberrors "github.com/datacanvas/collab/pkg/errors"
)

// MaxPendingGap is how far past the state vector a remote operation of one
// replica may be before it is refused instead of queued.
const MaxPendingGap = 1 << 14

// ErrTooFarAhead is returned for an operation beyond MaxPendingGap.
var ErrTooFarAhead = collaberrors.InvalidArgument("operation too far ahead").WithCode("ErrTooFarAhead")

// Document is a replica of one cell's content. It is not safe for concurrent
// use; the registry serializes access to it.
type Document struct {
	key    key.Key
	clock  *time.Clock
	seq    *crdt.Sequence
	vector time.VersionVector

	// log holds the integrated operations of each replica, where the
	// operation with counter c is at position c-1.
	log map[time.ActorID][]operations.Operation

	// pending holds remote operations that wait for a gap in their replica's
	// counters to be filled or for the elements they reference.
	pending map[time.ActorID]map[uint64]operations.Operation
}

// New creates a new empty Document edited locally by the given replica.
func New(k key.Key, actorID time.ActorID) *Document {
	clock := time.NewClock(actorID)
	return &Document{
		key:     k,
		clock:   clock,
		seq:     crdt.NewSequence(clock),
		vector:  time.NewVersionVector(),
		log:     make(map[time.ActorID][]operations.Operation),
		pending: make(map[time.ActorID]map[uint64]operations.Operation),
	}
}

// Key returns the key of this document.
func (d *Document) Key() key.Key {
	return d.key
}

// ActorID returns the replica that edits this document locally.
func (d *Document) ActorID() time.ActorID {
	return d.clock.ActorID()
}

// InsertAt inserts the value so that it becomes visible at the given index and
// returns the operation to broadcast.
func (d *Document) InsertAt(index int, value string) (operations.Operation, error) {
	if value == "" {
		return nil, fmt.Errorf("insert empty value: %w", operations.ErrMalformedOperation)
	}

	elem, err := d.seq.LocalInsert(index, value)
	if err != nil {
		return nil, fmt.Errorf("insert at: %w", err)
	}

	op := operations.FromElement(elem)
	d.record(op)
	return op, nil
}

// InsertText inserts each rune of the text as its own element.
func (d *Document) InsertText(index int, text string) ([]operations.Operation, error) {
	if index < 0 || index > d.seq.Len() {
		return nil, fmt.Errorf("insert text at %d: %w", index, crdt.ErrIndexOutOfRange)
	}

	var ops []operations.Operation
	i := index
	for _, r := range text {
		op, err := d.InsertAt(i, string(r))
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
		i++
	}
	return ops, nil
}

// DeleteAt tombstones the element visible at the given index and returns the
// operation to broadcast.
func (d *Document) DeleteAt(index int) (operations.Operation, error) {
	target, err := d.seq.LocalDelete(index)
	if err != nil {
		return nil, fmt.Errorf("delete at: %w", err)
	}

	op := operations.NewDelete(d.clock.Next(), target)
	d.record(op)
	return op, nil
}

// DeleteRange tombstones length elements starting at the given index.
func (d *Document) DeleteRange(index, length int) ([]operations.Operation, error) {
	if length < 0 || index < 0 || index+length > d.seq.Len() {
		return nil, fmt.Errorf("delete %d from %d: %w", length, index, crdt.ErrIndexOutOfRange)
	}

	ops := make([]operations.Operation, 0, length)
	for i := 0; i < length; i++ {
		op, err := d.DeleteAt(index)
		if err != nil {
			return ops, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ApplyRemote integrates operations received from other replicas and returns
// the changes of the visible content in the order they happened. Operations
// already integrated are ignored. Operations that arrive before their
// dependencies are kept and integrated as soon as the dependencies arrive.
// Malformed operations are reported in the returned error while the rest of
// the batch is still applied. A malformed operation with a usable id still
// uses up its counter as a Skip, so the replica that sent it is not stalled.
func (d *Document) ApplyRemote(ops ...operations.Operation) ([]crdt.Delta, error) {
	var errs []error
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			errs = append(errs, err)
			skip := operations.NewSkip(op.ID())
			if skip.Validate() != nil {
				continue
			}
			op = skip
		}

		id := op.ID()
		if d.vector.Covers(id) {
			continue
		}
		if gap := id.Counter() - d.vector.VersionOf(id.ActorID()); gap > MaxPendingGap {
			errs = append(errs, fmt.Errorf("operation %s is %d ahead: %w", id.Key(), gap, ErrTooFarAhead))
			continue
		}

		queue, ok := d.pending[id.ActorID()]
		if !ok {
			queue = make(map[uint64]operations.Operation)
			d.pending[id.ActorID()] = queue
		}
		if queued, ok := queue[id.Counter()]; ok && isSkip(op) && !isSkip(queued) {
			continue
		}
		queue[id.Counter()] = op
	}

	deltas, err := d.drain()
	if err != nil {
		errs = append(errs, err)
	}

	return deltas, errors.Join(errs...)
}

func isSkip(op operations.Operation) bool {
	_, ok := op.(*operations.Skip)
	return ok
}

// drain integrates pending operations until no more of them are ready. An
// operation depending on an element that can no longer arrive is replaced by
// a Skip.
func (d *Document) drain() ([]crdt.Delta, error) {
	var deltas []crdt.Delta
	var errs []error
	for progressed := true; progressed; {
		progressed = false

		for _, actor := range d.pendingActors() {
			queue := d.pending[actor]
			for {
				op, ok := queue[d.vector.VersionOf(actor)+1]
				if !ok {
					break
				}
				ready, err := d.ready(op)
				if err != nil {
					errs = append(errs, err)
					op = operations.NewSkip(op.ID())
				} else if !ready {
					break
				}

				delta, err := op.Execute(d.seq)
				if err != nil {
					errs = append(errs, fmt.Errorf("drain %s: %w", op.ID().Key(), err))
					break
				}

				delete(queue, op.ID().Counter())
				d.record(op)
				if delta != nil {
					deltas = append(deltas, *delta)
				}
				progressed = true
			}

			if len(queue) == 0 {
				delete(d.pending, actor)
			}
		}
	}

	return deltas, errors.Join(errs...)
}

// ready reports whether the elements the operation depends on are
// integrated. An element whose id the vector already covers will never be
// integrated, which makes the operation malformed.
func (d *Document) ready(op operations.Operation) (bool, error) {
	for _, dep := range op.Dependencies() {
		if d.seq.Has(dep) {
			continue
		}
		if d.vector.Covers(dep) {
			return false, fmt.Errorf(
				"%s depends on %s which is not an element: %w",
				op.ID().Key(), dep.Key(), operations.ErrMalformedOperation,
			)
		}
		return false, nil
	}
	return true, nil
}

func (d *Document) pendingActors() []time.ActorID {
	actors := make([]time.ActorID, 0, len(d.pending))
	for actor := range d.pending {
		actors = append(actors, actor)
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i] < actors[j]
	})
	return actors
}

// record appends an integrated operation to the log and advances the vector.
func (d *Document) record(op operations.Operation) {
	id := op.ID()
	d.log[id.ActorID()] = append(d.log[id.ActorID()], op)
	d.vector.Set(id.ActorID(), id.Counter())
	if id.ActorID() == d.clock.ActorID() {
		d.clock.Observe(id.Counter())
	}
}

// VersionVector returns a copy of the state vector of this document.
func (d *Document) VersionVector() time.VersionVector {
	return d.vector.DeepCopy()
}

// OpsSince returns the operations a peer with the given vector is missing, in
// ascending counter order per replica and replicas in ascending order.
func (d *Document) OpsSince(vector time.VersionVector) []operations.Operation {
	var ops []operations.Operation
	for _, actor := range d.vector.Keys() {
		log := d.log[actor]
		from := vector.VersionOf(actor)
		if from >= uint64(len(log)) {
			continue
		}
		ops = append(ops, log[from:]...)
	}
	return ops
}

// Ops returns every integrated operation.
func (d *Document) Ops() []operations.Operation {
	return d.OpsSince(time.NewVersionVector())
}

// Pending returns the number of remote operations waiting for dependencies.
func (d *Document) Pending() int {
	count := 0
	for _, queue := range d.pending {
		count += len(queue)
	}
	return count
}

// Content returns the visible content of this document.
func (d *Document) Content() string {
	return d.seq.Content()
}

// VisibleContent returns the visible elements' values in order.
func (d *Document) VisibleContent() []string {
	return d.seq.VisibleContent()
}

// Len returns the number of visible elements.
func (d *Document) Len() int {
	return d.seq.Len()
}

// IsEmpty returns whether no operation was ever integrated.
func (d *Document) IsEmpty() bool {
	return len(d.log) == 0
}

// Tombstones returns the number of removed elements kept for merging.
func (d *Document) Tombstones() int {
	return d.seq.Tombstones()
}

// ToTestString returns the sequence with its metadata for debugging purpose.
func (d *Document) ToTestString() string {
	return d.seq.ToTestString()
}
