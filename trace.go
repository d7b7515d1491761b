// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tanneberger/reactor-sched/internal/record"
	"github.com/tanneberger/reactor-sched/internal/wal"
)

// EventKind identifies the scheduling decision a TraceEvent records.
type EventKind uint16

const (
	EventTrigger EventKind = EventKind(record.TriggerRecordType)
	EventDispatch EventKind = EventKind(record.DispatchRecordType)
	EventComplete EventKind = EventKind(record.CompleteRecordType)
	EventLevelAdvance EventKind = EventKind(record.LevelAdvanceRecordType)
	EventTagAdvance EventKind = EventKind(record.TagAdvanceRecordType)
	EventStop EventKind = EventKind(record.StopRecordType)
)

// TraceEvent is one entry in the scheduler's dispatch trace: enough to
// replay or audit the exact order reactions were triggered, dispatched,
// and completed in.
type TraceEvent struct {
	Kind      EventKind
	Tag       uint64
	Level     uint32
	Index     Index
	WorkerID  int32
	Timestamp time.Time
}

const traceEventPayloadLen = 2 + 8 + 4 + 8 + 4 + 8 // kind,tag,level,index,worker,unixnano

func (e TraceEvent) encode() []byte {
	buf := make([]byte, traceEventPayloadLen)
	binary.BigEndian.PutUint16(buf[0:], uint16(e.Kind))
	binary.BigEndian.PutUint64(buf[2:], e.Tag)
	binary.BigEndian.PutUint32(buf[10:], e.Level)
	binary.BigEndian.PutUint64(buf[14:], uint64(e.Index))
	binary.BigEndian.PutUint32(buf[22:], uint32(e.WorkerID))
	binary.BigEndian.PutUint64(buf[26:], uint64(e.Timestamp.UnixNano()))
	return buf
}

func decodeTraceEvent(payload []byte) TraceEvent {
	return TraceEvent{
		Kind:      EventKind(binary.BigEndian.Uint16(payload[0:])),
		Tag:       binary.BigEndian.Uint64(payload[2:]),
		Level:     binary.BigEndian.Uint32(payload[10:]),
		Index:     Index(binary.BigEndian.Uint64(payload[14:])),
		WorkerID:  int32(binary.BigEndian.Uint32(payload[22:])),
		Timestamp: time.Unix(0, int64(binary.BigEndian.Uint64(payload[26:]))),
	}
}

// Tracer records TraceEvents as the scheduler dispatches work. Record is
// called synchronously on the scheduling path and returns no error: a
// tracer that cannot store an event drops it (walTracer logs a warning).
// There is no buffering, so a slow tracer (walTracer fsyncs every append)
// slows the caller.
type Tracer interface {
	Record(e TraceEvent)
	Events() []TraceEvent
	Close() error
}

// noopTracer discards every event. It is the default when a caller does
// not ask for tracing.
type noopTracer struct{}

func (noopTracer) Record(TraceEvent)    {}
func (noopTracer) Events() []TraceEvent { return nil }
func (noopTracer) Close() error         { return nil }

// walTracer persists TraceEvents through a wal.WriteAheadLog, framing each
// as a record.Record via internal/record's CRC64 length-prefixed format.
// mu serializes access to the WAL, which workers record into concurrently.
type walTracer struct {
	mu  sync.Mutex
	log *wal.WriteAheadLog
	lg  Logger
}

// defaultTraceSegmentBytes bounds a single trace WAL segment before it
// rotates, so a scheduler left running for a long time does not grow one
// unbounded file on disk.
const defaultTraceSegmentBytes = 64 << 20

// NewFileTracer opens (creating if necessary) a trace WAL at path.
func NewFileTracer(path string, lg Logger) (Tracer, error) {
	w, err := wal.New(path, defaultTraceSegmentBytes)
	if err != nil {
		return nil, err
	}
	return &walTracer{log: w, lg: lg}, nil
}

func (t *walTracer) Record(e TraceEvent) {
	r := &record.Record{Version: 1, Type: uint16(e.Kind), Payload: e.encode()}
	t.mu.Lock()
	err := t.log.Append(r)
	t.mu.Unlock()
	if err != nil {
		t.lg.Warn("dropping trace event: wal append failed", zap.Error(err))
	}
}

func (t *walTracer) Events() []TraceEvent {
	t.mu.Lock()
	records, err := t.log.ReadAll()
	t.mu.Unlock()
	if err != nil {
		t.lg.Warn("failed reading trace wal", zap.Error(err))
		return nil
	}
	events := make([]TraceEvent, 0, len(records))
	for _, r := range records {
		events = append(events, decodeTraceEvent(r.Payload))
	}
	return events
}

func (t *walTracer) Close() error {
	return t.log.Close()
}

// memTracer keeps events in a slice guarded by a mutex; used by tests and
// by the bench CLI when no --trace file is given.
type memTracer struct {
	mu     sync.Mutex
	events []TraceEvent
}

// NewMemTracer returns an in-process Tracer backed by a plain slice,
// for tests and dry runs that do not want a file on disk.
func NewMemTracer() Tracer {
	return &memTracer{}
}

func (t *memTracer) Record(e TraceEvent) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

func (t *memTracer) Events() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

func (t *memTracer) Close() error { return nil }
