// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"sync"
	"time"
)

// WatchdogHandler is invoked when a Watchdog's deadline elapses without
// renewal. It must not throw, and must not call back into the Watchdog
// that invoked it, since it runs with that Watchdog's mutex held.
type WatchdogHandler func()

// Watchdog is a per-reactor bounded-time monitor: an idle-wait /
// timed-wait / fired / terminated state machine, specialized to a single
// pending deadline per reactor. A buffered "wake" channel stands in for a
// condition variable, and a select against a time.Timer stands in for a
// timed cond wait.
type Watchdog struct {
	mu sync.Mutex

	active     bool
	terminate  bool
	expiration time.Time // zero value is the NEVER sentinel

	minExpiration time.Duration
	handler       WatchdogHandler
	logicalNow    func() time.Time
	log           Logger

	wake chan struct{}
	done chan struct{}
}

// NewWatchdog starts a Watchdog's monitor goroutine. minExpiration is the
// minimum interval Start arms the deadline for; logicalNow supplies the
// clock source - callers typically pass time.Now, or a deterministic
// logical clock under test.
func NewWatchdog(minExpiration time.Duration, handler WatchdogHandler, logicalNow func() time.Time, log Logger) *Watchdog {
	if logicalNow == nil {
		logicalNow = time.Now
	}
	w := &Watchdog{
		minExpiration: minExpiration,
		handler:       handler,
		logicalNow:    logicalNow,
		log:           log,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
	go w.run()
	return w
}

// Start arms (or re-arms) the deadline at current_logical_time +
// min_expiration + additional, clears terminate, and wakes the monitor iff
// it was not already active - a live timed-wait will itself notice the
// new, later expiration the next time its current timer fires (see run's
// spurious-wake discipline).
func (w *Watchdog) Start(additional time.Duration) {
	w.mu.Lock()
	alreadyActive := w.active
	w.expiration = w.logicalNow().Add(w.minExpiration + additional)
	w.terminate = false
	w.active = true
	w.mu.Unlock()

	if !alreadyActive {
		w.wake1()
	}
}

// Stop sets expiration to NEVER and signals, so a live timed-wait returns
// to idle-wait instead of firing. It also clears active, so that a later
// Start sees an idle monitor and wakes it.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	w.expiration = time.Time{}
	w.active = false
	w.mu.Unlock()
	w.wake1()
}

// Shutdown acquires the mutex, sets terminate and expiration = NEVER,
// signals, releases, and joins the monitor goroutine.
func (w *Watchdog) Shutdown() {
	w.mu.Lock()
	w.terminate = true
	w.expiration = time.Time{}
	w.active = false
	w.mu.Unlock()
	w.wake1()
	<-w.done
}

// wake1 performs a non-blocking signal, the channel analogue of
// sync.Cond.Signal: if the monitor goroutine is not currently waiting to
// receive, the wake is simply dropped because the monitor is about to
// re-check state anyway. Mirrors Monitor.AdvanceTime's
// "select { case ch <- v: default: }" drop policy.
func (w *Watchdog) wake1() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// run is the monitor thread's main loop. Every wake - spurious or not -
// re-checks both expiration and terminate under the mutex before acting.
func (w *Watchdog) run() {
	defer close(w.done)

	for {
		w.mu.Lock()
		if w.terminate {
			w.mu.Unlock()
			return
		}

		if w.expiration.IsZero() {
			// Idle-wait.
			w.mu.Unlock()
			<-w.wake
			continue
		}

		remaining := w.expiration.Sub(w.logicalNow())
		if remaining <= 0 {
			// Fired: invoke the handler under the mutex, then return to
			// idle-wait.
			w.active = false
			handler := w.handler
			w.expiration = time.Time{}
			if handler != nil {
				if w.log != nil {
					w.log.Debug("watchdog deadline elapsed, firing handler")
				}
				handler()
			}
			w.mu.Unlock()
			continue
		}
		w.mu.Unlock()

		// Timed-wait: race the deadline against an explicit wake.
		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
		case <-w.wake:
			timer.Stop()
		}
	}
}
