// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanneberger/reactor-sched/internal/testutil"
)

// fixedEnvironment is a scheduler.Environment whose AdvanceTagLocked stops
// after a fixed number of tags and otherwise does nothing; most tests drive
// the scheduler directly and never need more than one tag to elapse.
type fixedEnvironment struct {
	mu        sync.Mutex
	tagBudget int
}

func (e *fixedEnvironment) TryAdvanceLevel(level *uint32) {}

func (e *fixedEnvironment) AdvanceTagLocked() bool {
	if e.tagBudget <= 0 {
		return true
	}
	e.tagBudget--
	return e.tagBudget == 0
}

func (e *fixedEnvironment) Lock()   { e.mu.Lock() }
func (e *fixedEnvironment) Unlock() { e.mu.Unlock() }

func newTestScheduler(t *testing.T, numWorkers int, numLevels int, tagBudget int) (*Scheduler, *fixedEnvironment) {
	env := &fixedEnvironment{tagBudget: tagBudget}
	log := testutil.MakeLogger(t)
	s := New(env, log, nil)

	perLevel := make([]int, numLevels)
	require.NoError(t, s.Init(numWorkers, Params{Workers: numWorkers, NumReactionsPerLevel: perLevel}))
	t.Cleanup(s.Free)
	return s, env
}

// TestDeadlineOrderSingleWorker triggers reactions A(3), B(1), C(2), all
// level 0, in that order on a single worker. Dispatch order must be the
// ascending index order B, C, A - not trigger order.
func TestDeadlineOrderSingleWorker(t *testing.T) {
	s, _ := newTestScheduler(t, 1, 1, 2)

	a := NewReaction("A", MakeIndex(0, 3))
	b := NewReaction("B", MakeIndex(0, 1))
	c := NewReaction("C", MakeIndex(0, 2))

	require.True(t, s.TriggerReaction(a, 0))
	require.True(t, s.TriggerReaction(b, 0))
	require.True(t, s.TriggerReaction(c, 0))

	ctx := context.Background()
	var order []string
	for i := 0; i < 3; i++ {
		r, ok := s.GetReadyReaction(ctx, 0)
		require.True(t, ok)
		order = append(order, r.Name)
		s.DoneWithReaction(0, r)
	}
	require.Equal(t, []string{"B", "C", "A"}, order)
}

// TestLevelBarrierBlocksHigherLevel triggers R1 and R3 at level 0, R2 at
// level 1, all before any worker runs, drained by 2 workers. Both level-0
// reactions must complete before the level-1 reaction is dispatched to
// anyone. Each worker runs until the tag budget runs out and stop is
// signaled: a worker left idle while the other drains level 1 stays parked
// on the semaphore until then.
func TestLevelBarrierBlocksHigherLevel(t *testing.T) {
	s, _ := newTestScheduler(t, 2, 2, 2)

	r1 := NewReaction("R1", MakeIndex(0, 0))
	r2 := NewReaction("R2", MakeIndex(1, 0))
	r3 := NewReaction("R3", MakeIndex(0, 1))

	require.True(t, s.TriggerReaction(r1, -1))
	require.True(t, s.TriggerReaction(r2, -1))
	require.True(t, s.TriggerReaction(r3, -1))

	ctx := context.Background()
	var mu sync.Mutex
	var level0Done int
	var level1StartedBeforeLevel0Done bool

	var wg sync.WaitGroup
	for w := int32(0); w < 2; w++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			for {
				r, ok := s.GetReadyReaction(ctx, id)
				if !ok {
					return
				}
				if r.Index.Level() == 1 {
					mu.Lock()
					if level0Done < 2 {
						level1StartedBeforeLevel0Done = true
					}
					mu.Unlock()
				}
				time.Sleep(time.Millisecond)
				if r.Index.Level() == 0 {
					mu.Lock()
					level0Done++
					mu.Unlock()
				}
				s.DoneWithReaction(id, r)
			}
		}(w)
	}
	wg.Wait()

	require.False(t, level1StartedBeforeLevel0Done)
	require.Equal(t, 2, level0Done)
}

// TestDuplicateTriggerIsSilent triggers the same reaction concurrently
// from 5 goroutines before dispatch. It must be dispatched exactly once;
// the other 4 trigger calls are silent no-ops.
func TestDuplicateTriggerIsSilent(t *testing.T) {
	s, _ := newTestScheduler(t, 1, 1, 2)

	r := NewReaction("R", MakeIndex(0, 0))

	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TriggerReaction(r, -1) {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), successes.Load())

	dispatched, ok := s.GetReadyReaction(context.Background(), 0)
	require.True(t, ok)
	require.Same(t, r, dispatched)
	s.DoneWithReaction(0, dispatched)
}

// TestStopPropagationToAllWorkers: 4 workers idle, SignalStop called.
// All 4 must return with ok=false.
func TestStopPropagationToAllWorkers(t *testing.T) {
	s, _ := newTestScheduler(t, 4, 1, 1000)

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := s.GetReadyReaction(ctx, int32(i))
			results[i] = ok
		}(i)
	}

	// Give every worker a chance to park on the idle semaphore before
	// signaling stop.
	time.Sleep(20 * time.Millisecond)
	s.SignalStop()
	wg.Wait()

	for i, ok := range results {
		require.False(t, ok, "worker %d should have observed stop", i)
	}
}

// TestDispatchedReactionStaysQueuedUntilDone checks that a reaction
// returned by GetReadyReaction is observed as still StatusQueued, and
// only transitions to StatusInactive once DoneWithReaction is called.
func TestDispatchedReactionStaysQueuedUntilDone(t *testing.T) {
	s, _ := newTestScheduler(t, 1, 1, 2)
	r := NewReaction("r0", MakeIndex(0, 0))
	require.True(t, s.TriggerReaction(r, 0))

	got, ok := s.GetReadyReaction(context.Background(), 0)
	require.True(t, ok)
	require.Same(t, r, got)
	require.Equal(t, StatusQueued, got.LoadStatus())

	s.DoneWithReaction(0, got)
	require.Equal(t, StatusInactive, got.LoadStatus())
}

func TestInitIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t, 1, 1, 1)
	err := s.Init(1, Params{Workers: 1, NumReactionsPerLevel: []int{1}})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestTagAdvanceDrivesMultipleLevelsInOrder(t *testing.T) {
	s, _ := newTestScheduler(t, 1, 3, 2)

	r0 := NewReaction("r0", MakeIndex(0, 0))
	r1 := NewReaction("r1", MakeIndex(1, 0))
	r2 := NewReaction("r2", MakeIndex(2, 0))
	require.True(t, s.TriggerReaction(r2, 0))
	require.True(t, s.TriggerReaction(r1, 0))
	require.True(t, s.TriggerReaction(r0, 0))

	ctx := context.Background()
	var order []string
	for i := 0; i < 3; i++ {
		r, ok := s.GetReadyReaction(ctx, 0)
		require.True(t, ok)
		order = append(order, r.Name)
		s.DoneWithReaction(0, r)
	}
	require.Equal(t, []string{"r0", "r1", "r2"}, order)
}

func TestSingleWorkerDrivesItsOwnAdvance(t *testing.T) {
	// W=1 boundary: the one worker is both the producer and consumer of
	// the level/tag advance; there is no one else to hand off to.
	s, _ := newTestScheduler(t, 1, 1, 2)
	r := NewReaction("solo", MakeIndex(0, 0))
	require.True(t, s.TriggerReaction(r, 0))

	got, ok := s.GetReadyReaction(context.Background(), 0)
	require.True(t, ok)
	require.Same(t, r, got)
	s.DoneWithReaction(0, got)
}
