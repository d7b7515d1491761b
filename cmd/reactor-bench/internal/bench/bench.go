// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bench builds a synthetic reaction graph and a minimal
// Environment so reactor-bench can exercise scheduler.Scheduler end to
// end without any real reactor runtime attached.
package bench

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	scheduler "github.com/tanneberger/reactor-sched"
)

// Config collects the bench run's parameters, settable from flags or a
// TOML file via scheduler.LoadParams-style decoding.
type Config struct {
	Workers           int
	Levels            int
	ReactionsPerLevel int
	Tags              int
	ConfigPath        string
	TracePath         string
}

// Result is what Run reports back to the CLI layer.
type Result struct {
	Elapsed          time.Duration
	TagsCompleted    uint64
	DispatchesByLevel []uint64
}

// Print writes a human-readable run summary.
func (r Result) Print(w io.Writer) {
	fmt.Fprintf(w, "completed %d tags in %s\n", r.TagsCompleted, r.Elapsed)
	for level, count := range r.DispatchesByLevel {
		fmt.Fprintf(w, "  level %d: %d dispatches\n", level, count)
	}
}

// Run builds a scheduler sized per cfg, registers cfg.Levels*
// cfg.ReactionsPerLevel reactions, triggers the level-0 ones once per
// tag, and lets cfg.Workers workers drain it until cfg.Tags tags have
// elapsed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.ConfigPath != "" {
		var fileCfg struct {
			Workers int `toml:"workers"`
			Levels  int `toml:"levels"`
		}
		if _, err := toml.DecodeFile(cfg.ConfigPath, &fileCfg); err != nil {
			return Result{}, fmt.Errorf("loading bench config: %w", err)
		}
		if fileCfg.Workers > 0 {
			cfg.Workers = fileCfg.Workers
		}
		if fileCfg.Levels > 0 {
			cfg.Levels = fileCfg.Levels
		}
	}

	log := zap.NewNop()
	sl := scheduler.NewLogger(log)

	var tracer scheduler.Tracer = scheduler.NewMemTracer()
	if cfg.TracePath != "" {
		fileTracer, err := scheduler.NewFileTracer(cfg.TracePath, sl)
		if err != nil {
			return Result{}, fmt.Errorf("opening trace file: %w", err)
		}
		tracer = fileTracer
	}

	env := newBenchEnvironment(cfg.Tags)
	sched := scheduler.New(env, sl, tracer)

	perLevel := make([]int, cfg.Levels)
	for i := range perLevel {
		perLevel[i] = cfg.ReactionsPerLevel
	}
	if err := sched.Init(cfg.Workers, scheduler.Params{Workers: cfg.Workers, NumReactionsPerLevel: perLevel}); err != nil {
		return Result{}, fmt.Errorf("init scheduler: %w", err)
	}
	defer sched.Free()

	reactions := make([][]*scheduler.Reaction, cfg.Levels)
	dispatches := make([]atomic.Uint64, cfg.Levels)
	for level := 0; level < cfg.Levels; level++ {
		reactions[level] = make([]*scheduler.Reaction, cfg.ReactionsPerLevel)
		for i := 0; i < cfg.ReactionsPerLevel; i++ {
			idx := scheduler.MakeIndex(uint32(level), uint32(i))
			reactions[level][i] = scheduler.NewReaction(fmt.Sprintf("L%d#%d", level, i), idx)
		}
	}
	env.onLevelZeroTagStart = func() {
		for _, r := range reactions[0] {
			sched.TriggerReaction(r, -1)
		}
	}

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			for {
				r, ok := sched.GetReadyReaction(ctx, id)
				if !ok {
					return
				}
				level := r.Index.Level()
				dispatches[level].Add(1)
				if level+1 < uint32(len(reactions)) {
					for _, next := range reactions[level+1] {
						sched.TriggerReaction(next, id)
					}
				}
				sched.DoneWithReaction(id, r)
			}
		}(int32(w))
	}
	wg.Wait()

	counts := make([]uint64, cfg.Levels)
	for i := range counts {
		counts[i] = dispatches[i].Load()
	}

	return Result{
		Elapsed:           time.Since(start),
		TagsCompleted:     env.tagsCompleted.Load(),
		DispatchesByLevel: counts,
	}, nil
}
