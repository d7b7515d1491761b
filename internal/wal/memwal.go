// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"bytes"
	"fmt"

	"github.com/tanneberger/reactor-sched/internal/record"
)

// InMemWAL is a test double for WriteAheadLog: a trace log backed by an
// in-memory buffer instead of a file, for tests that want to assert on
// the exact record sequence without touching disk.
type InMemWAL bytes.Buffer

func (wal *InMemWAL) Append(r *record.Record) error {
	if err := validateRecordType(r.Type); err != nil {
		return err
	}
	w := (*bytes.Buffer)(wal)
	_, err := w.Write(r.Bytes())
	return err
}

func (wal *InMemWAL) ReadAll() ([]record.Record, error) {
	r := bytes.NewBuffer((*bytes.Buffer)(wal).Bytes())
	var res []record.Record

	for r.Len() > 0 {
		var rec record.Record
		if _, err := rec.FromBytes(r); err != nil {
			return nil, fmt.Errorf("failed reading in-memory record: %w", err)
		}
		res = append(res, rec)
	}
	return res, nil
}
