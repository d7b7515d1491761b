// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a *zap.Logger to this package's Logger interface. It is
// the production counterpart to internal/testutil's TestLogger: same
// severities, but without per-test caller/name decoration.
//
// zap.Logger.Fatal normally calls os.Exit(1), which would make fatal()'s
// own panic(&invariantViolation{}) unreachable. NewLogger installs a
// no-op fatal hook (noopFatalHook) so Fatal only logs; fatal() in
// errors.go panics right after, with a type callers can recover and
// inspect instead of zap's own panic(string). zapcore.WriteThenNoop
// cannot serve here: zap replaces it with WriteThenFatal for Fatal entries.
type zapLogger struct {
	*zap.Logger
	verbo *zap.Logger
}

// noopFatalHook is a zapcore.CheckWriteHook that does nothing after a
// Fatal entry is written.
type noopFatalHook struct{}

func (noopFatalHook) OnWrite(*zapcore.CheckedEntry, []zapcore.Field) {}

// NewLogger wraps base for use as a scheduler Logger.
func NewLogger(base *zap.Logger) Logger {
	noExit := base.WithOptions(zap.WithFatalHook(noopFatalHook{}))
	return &zapLogger{
		Logger: noExit,
		verbo:  noExit.WithOptions(zap.AddCallerSkip(1)),
	}
}

// Verbo logs at debug level; zap has no dedicated "extremely detailed"
// level, so Verbo and Debug share one.
func (l *zapLogger) Verbo(msg string, fields ...zap.Field) {
	l.verbo.Log(zapcore.DebugLevel, msg, fields...)
}
