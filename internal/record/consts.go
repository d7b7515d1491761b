// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package record

// Record type tags for the scheduler's trace WAL: what kind of scheduling
// decision a given record describes.
const (
	UndefinedRecordType uint16 = iota
	TriggerRecordType
	DispatchRecordType
	CompleteRecordType
	LevelAdvanceRecordType
	TagAdvanceRecordType
	StopRecordType
)
