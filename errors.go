// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrAlreadyInitialized is returned by Init when called a second time on
// the same scheduler: initializing twice is a no-op, not an error to
// propagate as a panic.
var ErrAlreadyInitialized = errors.New("scheduler: already initialized")

// invariantViolation is the panic value fatal() raises. Tests recover it
// instead of letting it kill the whole binary; a production host has
// already observed the Fatal-level log line by the time it propagates.
type invariantViolation struct {
	msg string
}

func (e *invariantViolation) Error() string { return e.msg }

// fatal logs msg at Fatal level and panics with an invariantViolation.
// There are no retryable errors in the scheduling path: a lost or
// duplicated reaction cannot be reconciled after the fact, so this
// privileges fail-fast over partial recovery.
func fatal(log Logger, msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
	panic(&invariantViolation{msg: msg})
}

func fatalf(log Logger, format string, args ...any) {
	fatal(log, fmt.Sprintf(format, args...))
}
