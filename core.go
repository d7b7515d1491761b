// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements a deterministic, level-synchronized,
// work-distributing reaction scheduler: a bounded pool of worker
// goroutines drains precedence-leveled priority queues of reactions in
// strict level order, handing off to the next logical tag only once
// every worker has gone idle.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Scheduler is the GEDF-NP core: a worker pool draining precedence-leveled
// priority queues in strict level order, with get/done/trigger reaction,
// init, free, and signal-stop exposed as methods here.
type Scheduler struct {
	env    Environment
	log    Logger
	tracer Tracer

	table *readyTable

	numWorkers     int32
	numIdleWorkers atomic.Int32
	sem            *semaphore.Weighted

	shouldStop  atomic.Bool
	initialized atomic.Bool

	tag atomic.Uint64
}

// New constructs a Scheduler bound to env. Call Init before any worker
// calls GetReadyReaction.
func New(env Environment, log Logger, tracer Tracer) *Scheduler {
	if tracer == nil {
		tracer = noopTracer{}
	}
	return &Scheduler{env: env, log: log, tracer: tracer}
}

// Init sizes the ready table from params and prepares the worker-idle
// semaphore for numWorkers workers. Init is idempotent: a second call is
// a no-op that reports ErrAlreadyInitialized rather than re-initializing
// live state out from under running workers.
func (s *Scheduler) Init(numWorkers int, params Params) error {
	if !s.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	s.numWorkers = int32(numWorkers)
	s.table = newReadyTable(int(params.MaxLevel())+1, s.env.TryAdvanceLevel)

	// A semaphore.Weighted starts with its full capacity available; drain
	// it immediately so the first worker to call Acquire blocks, matching
	// a counting semaphore initialized to zero.
	s.sem = semaphore.NewWeighted(int64(numWorkers))
	if numWorkers > 0 {
		_ = s.sem.Acquire(context.Background(), int64(numWorkers))
	}

	return nil
}

// Free releases the executing PQ and every level's PQ, and is safe to
// call more than once.
func (s *Scheduler) Free() {
	if s.table != nil {
		s.table.free()
	}
	_ = s.tracer.Close()
}

// GetReadyReaction blocks until a reaction is ready for workerID to run,
// or returns (nil, false) once SignalStop has been observed. ctx
// cancellation is treated the same as a stop signal for this call only.
func (s *Scheduler) GetReadyReaction(ctx context.Context, workerID int32) (*Reaction, bool) {
	for !s.shouldStop.Load() {
		if r := s.popFromExecuting(); r != nil {
			s.traceReaction(EventDispatch, r, workerID)
			return r, true
		}

		n := s.numIdleWorkers.Add(1)
		if n == s.numWorkers {
			// Last worker to go idle: drive the level/tag advance myself,
			// then loop back around to try popping again.
			s.tryAdvanceTagAndDistribute()
			continue
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, false
		}
	}
	return nil, false
}

// DoneWithReaction performs the queued->inactive CAS. A CAS failure is a
// fatal invariant violation - nothing else ever sets a reaction queued
// except this scheduler, so an unexpected prior state means a reaction
// fired twice or was freed concurrently with its own execution.
func (s *Scheduler) DoneWithReaction(workerID int32, r *Reaction) {
	if !r.finish() {
		fatalf(s.log, "reaction %q observed queued->inactive CAS failure on completion (status=%s)", r.Name, r.LoadStatus())
	}
	s.traceReaction(EventComplete, r, workerID)
}

// TriggerReaction performs the inactive->queued admission CAS, followed
// by insertion into the PQ for r's own precedence level. It reports
// whether this call admitted r; false means another triggerer already
// won the race for this tag, which is an expected, silent outcome, not
// an error.
func (s *Scheduler) TriggerReaction(r *Reaction, workerID int32) bool {
	if !r.tryTrigger() {
		return false
	}
	s.table.insert(r)
	s.traceReaction(EventTrigger, r, workerID)
	return true
}

// SignalStop sets should_stop and wakes every other worker. It is
// idempotent.
func (s *Scheduler) SignalStop() {
	if !s.shouldStop.CompareAndSwap(false, true) {
		return
	}
	s.tracer.Record(TraceEvent{Kind: EventStop, Tag: s.tag.Load(), Timestamp: now()})
	s.log.Info("scheduler stop signaled")
	if releases := s.numWorkers - 1; releases > 0 {
		s.sem.Release(int64(releases))
	}
}

// popFromExecuting pops from the currently-executing level's PQ, or
// returns nil if no level is being drained. Reading the executing pointer
// without a lock is safe: it is mutated only by the last-idle worker
// while every other worker is parked on the semaphore, and the
// semaphore's internal mutex provides the happens-before edge those
// parked workers need to observe the new value once released.
func (s *Scheduler) popFromExecuting() *Reaction {
	exec := s.table.executing
	if exec == nil {
		return nil
	}
	return exec.popMin()
}

// tryAdvanceTagAndDistribute advances past exhausted levels and tags
// until it finds a level with work or the environment signals stop.
// Precondition: the caller is the worker whose idle-increment just
// observed numIdleWorkers == numWorkers, so every other worker is
// guaranteed parked on the semaphore and it is safe to touch
// table.nextLevel/table.executing without a lock.
func (s *Scheduler) tryAdvanceTagAndDistribute() {
	for {
		if s.table.exhausted() {
			s.table.resetCursor()

			s.env.Lock()
			stop := s.env.AdvanceTagLocked()
			s.env.Unlock()

			s.tag.Add(1)
			s.tracer.Record(TraceEvent{Kind: EventTagAdvance, Tag: s.tag.Load(), Timestamp: now()})

			if stop {
				s.SignalStop()
				return
			}
		}

		if n := s.table.distributeReadyReactions(); n > 0 {
			s.tracer.Record(TraceEvent{
				Kind:      EventLevelAdvance,
				Tag:       s.tag.Load(),
				Level:     s.table.nextLevel,
				Timestamp: now(),
			})
			s.notifyWorkers(n)
			return
		}
	}
}

// notifyWorkers wakes up to n = min(idle workers, level size) workers,
// one of which is the caller itself (already running, no semaphore
// release needed) and the rest via n-1 semaphore releases.
func (s *Scheduler) notifyWorkers(levelSize int) {
	idle := s.numIdleWorkers.Load()
	n := idle
	if int32(levelSize) < n {
		n = int32(levelSize)
	}
	if n <= 0 {
		return
	}
	s.numIdleWorkers.Add(-n)
	if n > 1 {
		s.sem.Release(int64(n - 1))
	}
}

func (s *Scheduler) traceReaction(kind EventKind, r *Reaction, workerID int32) {
	s.tracer.Record(TraceEvent{
		Kind:      kind,
		Tag:       s.tag.Load(),
		Level:     r.Index.Level(),
		Index:     r.Index,
		WorkerID:  workerID,
		Timestamp: now(),
	})
}

// now is a seam so tests can assert on trace event ordering without
// flaking on wall-clock resolution; production just wants real time.
var now = time.Now
