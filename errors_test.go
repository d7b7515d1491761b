// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanneberger/reactor-sched/internal/testutil"
)

func TestFatalPanicsWithInvariantViolation(t *testing.T) {
	log := testutil.MakeLogger(t)

	defer func() {
		r := recover()
		require.NotNil(t, r, "fatal must panic")
		violation, ok := r.(*invariantViolation)
		require.True(t, ok, "panic value must be *invariantViolation, got %T", r)
		require.Equal(t, "boom: 7", violation.Error())
	}()

	fatalf(log, "boom: %d", 7)
}
