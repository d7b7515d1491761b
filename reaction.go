// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import "sync/atomic"

// Status is the lifecycle state of a Reaction. It is mutated only through
// the atomic transitions on Reaction, never assigned directly.
type Status uint32

const (
	// StatusInactive means the reaction is not currently scheduled.
	StatusInactive Status = iota
	// StatusQueued means the reaction is admitted exactly once for the
	// current tag: sitting in a level's PQ, or popped and running. Status
	// stays queued for the reaction's entire execution, transitioning to
	// inactive only once the worker that popped it reports it done.
	StatusQueued
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Index packs a precedence level into the upper 32 bits and a deadline
// tiebreaker into the lower 32 bits, so that ascending numeric order is
// simultaneously level order and, within a level, deadline order.
type Index uint64

// MakeIndex builds an Index from a precedence level and a deadline
// tiebreaker. Reactions belonging to a higher level always sort after every
// reaction of a lower level, regardless of tiebreaker.
func MakeIndex(level uint32, tiebreaker uint32) Index {
	return Index(uint64(level)<<32 | uint64(tiebreaker))
}

// Level extracts the precedence level encoded in an Index.
func (i Index) Level() uint32 {
	return uint32(i >> 32)
}

// Tiebreaker extracts the deadline tiebreaker encoded in an Index.
func (i Index) Tiebreaker() uint32 {
	return uint32(i)
}

// Reaction is an opaque, pointer-identity unit of schedulable work. The
// scheduler never inspects its contents beyond Index and Status; the reactor
// body itself lives outside this package.
type Reaction struct {
	// Name is for debugging only; it plays no role in scheduling.
	Name string
	// Index encodes this reaction's precedence level and deadline
	// tiebreaker. It is immutable once the reaction is registered.
	Index Index

	status atomic.Uint32

	// heapPos is the reaction's position in its level's heap, kept up to
	// date by pq.go (-1 when not queued). pq has no Remove, so nothing
	// reads it; consumers must never touch it.
	heapPos int
}

// NewReaction registers a reaction at the given index. A reaction exists for
// the entire program run; only its status changes thereafter.
func NewReaction(name string, index Index) *Reaction {
	return &Reaction{Name: name, Index: index, heapPos: -1}
}

// tryTrigger attempts the inactive -> queued admission CAS. It reports
// whether this caller won the race; losing is an expected, silent outcome
// (another triggerer admitted the reaction first for this tag).
func (r *Reaction) tryTrigger() bool {
	return r.status.CompareAndSwap(uint32(StatusInactive), uint32(StatusQueued))
}

// finish transitions queued -> inactive. Called by the worker that popped
// the reaction from its level's PQ, after the reaction body returns. It
// reports whether the prior state was indeed queued; a false result is
// fatal in the caller, since a CAS mismatch here means some reaction was
// marked done twice.
func (r *Reaction) finish() bool {
	return r.status.CompareAndSwap(uint32(StatusQueued), uint32(StatusInactive))
}

// LoadStatus returns the reaction's current status. Intended for tests and
// diagnostics; the scheduler itself never branches on a plain load where a
// CAS is required for correctness.
func (r *Reaction) LoadStatus() Status {
	return Status(r.status.Load())
}
