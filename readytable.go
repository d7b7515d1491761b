// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

// TryAdvanceLevel is the host-runtime hook that may bump *level past
// levels the host already knows to be empty; the ready table still
// checks the PQ itself before trusting that.
type TryAdvanceLevel func(level *uint32)

// readyTable holds one PQ per precedence level and the cursor over levels
// that the worker-idle barrier advances between dispatches.
//
// nextLevel is a direct, zero-based index of "the next level to inspect";
// nextLevel > L_max is the one true "nothing left this tag" sentinel, with
// no overshoot possible. An earlier "cursor points one past the level to
// execute" encoding, combined with a `<= L_max` loop bound, either skips
// the last level or never reports exhaustion - see DESIGN.md.
type readyTable struct {
	levels []*pq

	// nextLevel is the next level index to inspect for this tag. A level
	// already being drained keeps nextLevel pointing at itself until a
	// distribute call observes it empty, at which point nextLevel moves
	// past it.
	nextLevel uint32

	// executing is the PQ the current level is draining from. nil is the
	// empty-sentinel: no level has work right now.
	executing *pq

	tryAdvanceLevel TryAdvanceLevel
}

// lMax returns the highest valid precedence level.
func (rt *readyTable) lMax() uint32 {
	return uint32(len(rt.levels)) - 1
}

func newReadyTable(numLevels int, tryAdvanceLevel TryAdvanceLevel) *readyTable {
	if numLevels < 1 {
		numLevels = 1
	}
	levels := make([]*pq, numLevels)
	for i := range levels {
		levels[i] = newPQ()
	}
	return &readyTable{
		levels:          levels,
		nextLevel:       0,
		tryAdvanceLevel: tryAdvanceLevel,
	}
}

// insert admits a freshly-triggered reaction into the PQ for its own
// precedence level (r.Index.Level()), not always level 0: a reaction
// triggered mid-tag by a lower-level reaction's side effects has a higher
// static level and must wait behind the barrier, not cut in at level 0.
// See DESIGN.md.
func (rt *readyTable) insert(r *Reaction) {
	level := r.Index.Level()
	if level > rt.lMax() {
		level = rt.lMax()
	}
	rt.levels[level].insert(r)
}

// resetCursor rewinds the level cursor to the start of a fresh tag.
func (rt *readyTable) resetCursor() {
	rt.nextLevel = 0
}

// exhausted reports whether the cursor has walked past every level for the
// current tag, meaning it is time to advance the tag instead.
func (rt *readyTable) exhausted() bool {
	return rt.nextLevel > rt.lMax()
}

// free releases every level's PQ, leaving none leaked.
func (rt *readyTable) free() {
	for _, level := range rt.levels {
		level.free()
	}
	rt.executing = nil
}

// distributeReadyReactions is called only when every worker is idle, so no
// PQ locking is required to inspect nextLevel or executing. It returns the
// size of the level it lands on, or 0 if no level at or after the cursor
// has any work, which tells the caller to advance the tag.
func (rt *readyTable) distributeReadyReactions() int {
	for rt.nextLevel <= rt.lMax() {
		if rt.tryAdvanceLevel != nil {
			rt.tryAdvanceLevel(&rt.nextLevel)
		}
		if rt.nextLevel > rt.lMax() {
			break
		}

		level := rt.levels[rt.nextLevel]
		if size := level.size(); size > 0 {
			rt.executing = level
			return size
		}
		// Empty level: advance the cursor ourselves. Guarantees forward
		// progress even when tryAdvanceLevel left the cursor untouched.
		rt.nextLevel++
	}
	return 0
}
