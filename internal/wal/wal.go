// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wal persists the scheduler's dispatch trace as a sequence of
// length-prefixed, checksummed records, so a run can be replayed or
// postmortem-inspected for the exact order in which reactions fired.
package wal

import (
	"fmt"
	"io"
	"os"

	"github.com/tanneberger/reactor-sched/internal/record"
)

const (
	WalFlags       = os.O_APPEND | os.O_CREATE | os.O_RDWR
	WalPermissions = 0666
)

// validateRecordType rejects anything ReadAll's caller (trace.go's
// decodeTraceEvent) would not know how to decode as a trace event, so a
// bad record.Type is caught at Append instead of surfacing as a garbled
// replay much later.
func validateRecordType(t uint16) error {
	if t == record.UndefinedRecordType || t > record.StopRecordType {
		return fmt.Errorf("wal: refusing to append unknown trace record type %d", t)
	}
	return nil
}

// WriteAheadLog is a single dispatch-trace segment backed by an append-only
// file. When maxSegmentBytes is positive, Append rotates to a fresh
// segment before writing a record that would push the current file past
// that size, so a long-running scheduler process does not grow one
// unbounded trace file on disk.
type WriteAheadLog struct {
	file *os.File
	path string
	size int64

	maxSegmentBytes int64
	segment         int
}

// New opens a trace WAL file, creating one if necessary. maxSegmentBytes
// bounds the size of any single segment file; pass 0 to disable rotation
// and grow the file without limit.
// Call Close() on the WriteAheadLog to ensure the file is closed after use.
func New(fileName string, maxSegmentBytes int64) (*WriteAheadLog, error) {
	file, err := os.OpenFile(fileName, WalFlags, WalPermissions)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("error statting wal file %w", err)
	}

	return &WriteAheadLog{
		file:            file,
		path:            fileName,
		size:            info.Size(),
		maxSegmentBytes: maxSegmentBytes,
	}, nil
}

// Append writes a record to the write ahead log, rotating to a fresh
// segment first if maxSegmentBytes would otherwise be exceeded, and
// flushes the OS cache on every write to ensure consistency.
func (w *WriteAheadLog) Append(r *record.Record) error {
	if err := validateRecordType(r.Type); err != nil {
		return err
	}

	bytes := r.Bytes()

	if w.maxSegmentBytes > 0 && w.size > 0 && w.size+int64(len(bytes)) > w.maxSegmentBytes {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("error rotating wal segment %w", err)
		}
	}

	n, err := w.file.Write(bytes)
	if err != nil {
		return err
	}
	w.size += int64(n)

	// ensure file gets written to persistent storage
	return w.file.Sync()
}

// rotate archives the current segment as "<path>.<n>" and opens a fresh,
// empty file at path for subsequent appends.
func (w *WriteAheadLog) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	w.segment++
	archived := fmt.Sprintf("%s.%d", w.path, w.segment)
	if err := os.Rename(w.path, archived); err != nil {
		return err
	}

	file, err := os.OpenFile(w.path, WalFlags, WalPermissions)
	if err != nil {
		return err
	}
	w.file = file
	w.size = 0
	return nil
}

// ReadAll reads every record in the current segment. Rotated-out,
// already-archived segments are not revisited - callers that need the
// full trace history across rotations are expected to read those
// segments directly by their archived path.
func (w *WriteAheadLog) ReadAll() ([]record.Record, error) {
	_, err := w.file.Seek(0, io.SeekStart)
	if err != nil {
		return []record.Record{}, fmt.Errorf("error seeking to start %w", err)
	}

	records := []record.Record{}
	fileInfo, err := w.file.Stat()
	if err != nil {
		return []record.Record{}, fmt.Errorf("error getting file info %w", err)
	}
	bytesToRead := fileInfo.Size()

	for bytesToRead > 0 {
		var rec record.Record
		bytesRead, err := rec.FromBytes(w.file)
		// record was corrupted in wal
		if err != nil {
			return records, w.truncateAt(fileInfo.Size() - bytesToRead)
		}

		bytesToRead -= int64(bytesRead)
		records = append(records, rec)
	}

	// should never happen
	if bytesToRead != 0 {
		return records, fmt.Errorf("read more bytes than expected")
	}

	return records, nil
}

// Truncate truncates the current segment, discarding its records. Used
// when a caller wants to start a fresh trace over an existing path
// without rotating the old one out to an archived file.
func (w *WriteAheadLog) Truncate() error {
	return w.truncateAt(0)
}

func (w *WriteAheadLog) truncateAt(offset int64) error {
	// truncate call is atomic. Ref https://cgi.cse.unsw.edu.au/~cs3231/18s1/os161/man/syscall/ftruncate.html
	err := w.file.Truncate(offset)
	if err != nil {
		return err
	}
	w.size = offset

	return w.file.Sync()
}

func (w *WriteAheadLog) Close() error {
	return w.file.Close()
}
