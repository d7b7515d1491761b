// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanneberger/reactor-sched/internal/testutil"
)

func TestTraceEventEncodeDecodeRoundTrip(t *testing.T) {
	e := TraceEvent{
		Kind:      EventDispatch,
		Tag:       42,
		Level:     3,
		Index:     MakeIndex(3, 7),
		WorkerID:  -1,
		Timestamp: time.Unix(1700000000, 123456789),
	}

	decoded := decodeTraceEvent(e.encode())
	require.Equal(t, e.Kind, decoded.Kind)
	require.Equal(t, e.Tag, decoded.Tag)
	require.Equal(t, e.Level, decoded.Level)
	require.Equal(t, e.Index, decoded.Index)
	require.Equal(t, e.WorkerID, decoded.WorkerID)
	require.True(t, e.Timestamp.Equal(decoded.Timestamp))
}

func TestNoopTracerDiscardsEverything(t *testing.T) {
	var tr noopTracer
	tr.Record(TraceEvent{Kind: EventTrigger})
	require.Nil(t, tr.Events())
	require.NoError(t, tr.Close())
}

func TestMemTracerRecordsInOrder(t *testing.T) {
	tr := NewMemTracer()
	tr.Record(TraceEvent{Kind: EventTrigger, Tag: 1})
	tr.Record(TraceEvent{Kind: EventDispatch, Tag: 1})
	tr.Record(TraceEvent{Kind: EventComplete, Tag: 1})

	events := tr.Events()
	require.Len(t, events, 3)
	require.Equal(t, EventTrigger, events[0].Kind)
	require.Equal(t, EventDispatch, events[1].Kind)
	require.Equal(t, EventComplete, events[2].Kind)
	require.NoError(t, tr.Close())
}

func TestFileTracerPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.wal")

	log := testutil.MakeLogger(t)
	tr, err := NewFileTracer(path, log)
	require.NoError(t, err)

	tr.Record(TraceEvent{Kind: EventTrigger, Tag: 1, Level: 0, Index: MakeIndex(0, 1)})
	tr.Record(TraceEvent{Kind: EventTagAdvance, Tag: 2})
	require.NoError(t, tr.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewFileTracer(path, log)
	require.NoError(t, err)
	defer reopened.Close()

	events := reopened.Events()
	require.Len(t, events, 2)
	require.Equal(t, EventTrigger, events[0].Kind)
	require.Equal(t, EventTagAdvance, events[1].Kind)
	require.Equal(t, uint64(2), events[1].Tag)
}
