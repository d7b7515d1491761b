// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import "go.uber.org/zap"

// Logger is the logging capability the scheduler and watchdog require from
// their host: one method per severity, each accepting zap fields so
// structured context travels with the message instead of being
// interpolated into it.
type Logger interface {
	// Fatal logs that a fatal invariant violation has occurred. The caller
	// should treat the process as unrecoverable after this returns.
	Fatal(msg string, fields ...zap.Field)
	// Error logs a recoverable error.
	Error(msg string, fields ...zap.Field)
	// Warn logs an event that may indicate a future error, such as a
	// dropped trace record.
	Warn(msg string, fields ...zap.Field)
	// Info logs progress-level events: tag advances, level advances.
	Info(msg string, fields ...zap.Field)
	// Debug logs events useful when debugging dispatch decisions.
	Debug(msg string, fields ...zap.Field)
	// Verbo logs extremely detailed events: every pop, every CAS.
	Verbo(msg string, fields ...zap.Field)
}

// Environment is the host runtime the scheduler core treats as an external
// collaborator: the piece that knows about wall-clock/logical time, the
// event queue, and when a run should end.
type Environment interface {
	// TryAdvanceLevel may skip levels the host already knows are empty. It
	// is called with no PQ lock held, only while every worker is idle.
	TryAdvanceLevel(level *uint32)

	// AdvanceTagLocked is called with the environment mutex held. It
	// reports whether the stop-tag has been reached; a true result causes
	// the scheduler to SignalStop.
	AdvanceTagLocked() (stop bool)

	// Lock and Unlock guard AdvanceTagLocked. The scheduler never holds a
	// PQ mutex while calling either, so lock ordering stays acyclic.
	Lock()
	Unlock()
}
