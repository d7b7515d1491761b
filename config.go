// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DefaultMaxLevel is used when Params.NumReactionsPerLevel is empty.
const DefaultMaxLevel = 15

// DefaultWatchdogMinExpiration is a zero minimum interval for callers of
// NewWatchdog that want no floor on a watchdog's deadline. NewWatchdog
// always takes minExpiration from its caller and does not apply this
// constant on its own.
const DefaultWatchdogMinExpiration = 0

// Params holds the per-level reaction counts used to size the ready
// table, plus the worker count. Only the length of NumReactionsPerLevel
// is used: it sets L_max, and so the number of level PQs. The counts
// themselves are not read; each level's heap grows as reactions arrive.
type Params struct {
	Workers              int   `toml:"workers"`
	NumReactionsPerLevel []int `toml:"num_reactions_per_level"`
}

// MaxLevel returns L_max = len(NumReactionsPerLevel) - 1, or
// DefaultMaxLevel if the slice is empty.
func (p Params) MaxLevel() uint32 {
	if len(p.NumReactionsPerLevel) == 0 {
		return DefaultMaxLevel
	}
	return uint32(len(p.NumReactionsPerLevel) - 1)
}

// LoadParams reads scheduler Params from a TOML file, the same
// configuration format BurntSushi/toml brings to the dependency pack this
// module draws from.
func LoadParams(path string) (Params, error) {
	var p Params
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Params{}, fmt.Errorf("loading scheduler params from %q: %w", path, err)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return p, nil
}
