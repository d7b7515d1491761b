// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"container/heap"
	"sync"
)

// reactionHeap is a binary-heap priority queue over reaction references,
// ordered by Index ascending. It is the same container/heap shape as
// TimeoutTask's TaskHeap, generalized from a time.Time deadline to an
// Index deadline.
type reactionHeap []*Reaction

func (h reactionHeap) Len() int { return len(h) }

// Less returns whether the reaction at index i has a lower Index (earlier
// deadline, or a strictly lower level) than the one at index j.
func (h reactionHeap) Less(i, j int) bool { return h[i].Index < h[j].Index }

func (h reactionHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapPos = i
	h[j].heapPos = j
}

func (h *reactionHeap) Push(x any) {
	r := x.(*Reaction)
	r.heapPos = h.Len()
	*h = append(*h, r)
}

func (h *reactionHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	r.heapPos = -1
	return r
}

// pq is the level-scoped priority queue exposed to the scheduler core: a
// mutex-protected reactionHeap plus insert/popMin/size/free.
type pq struct {
	mu sync.Mutex
	h  reactionHeap
}

func newPQ() *pq {
	return &pq{}
}

// insert pushes r into the queue. Callers are responsible for having already
// won the reaction's inactive->queued admission CAS; insert does not
// deduplicate - single-admission is the status CAS's job, not an equality
// check here.
func (q *pq) insert(r *Reaction) {
	q.mu.Lock()
	heap.Push(&q.h, r)
	q.mu.Unlock()
}

// popMin removes and returns the reaction with the smallest Index, or nil if
// the queue is empty.
func (q *pq) popMin() *Reaction {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*Reaction)
}

// size returns the number of reactions currently queued.
func (q *pq) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// free drops the queue's backing storage. Go's GC reclaims the rest; free
// exists so the ready table can release every level's PQ on shutdown.
func (q *pq) free() {
	q.mu.Lock()
	q.h = nil
	q.mu.Unlock()
}
