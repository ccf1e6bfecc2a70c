// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package bench runs contention benchmarks against the transactional
// engine and reports throughput, latency percentiles and conflict
// diagnostics.
package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dacapoday/stm"
)

// Config describes one benchmark run.
type Config struct {
	// Workers is the number of concurrent goroutines. Default 8.
	Workers int
	// Ops is the number of timed transactions per worker. Default 1000.
	Ops int
	// Cells is the number of shared cells the workers contend on.
	// Default 1 (maximum contention).
	Cells int
	// ReadRatio is the fraction of transactions that only read, in
	// [0, 1]. Default 0.
	ReadRatio float64
	// Warmup is the number of untimed transactions per worker run
	// before measurement starts. Default 100.
	Warmup int
	// Options configures the engine for every transaction.
	Options stm.Options
	// Logger receives progress output. Default zap.NewNop().
	Logger *zap.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.Ops <= 0 {
		cfg.Ops = 1000
	}
	if cfg.Cells <= 0 {
		cfg.Cells = 1
	}
	if cfg.ReadRatio < 0 {
		cfg.ReadRatio = 0
	}
	if cfg.ReadRatio > 1 {
		cfg.ReadRatio = 1
	}
	if cfg.Warmup <= 0 {
		cfg.Warmup = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Run executes the benchmark and returns its report. Every write
// transaction increments one of the shared cells, so the final cell sum
// must equal the number of committed writes; Run fails if any update
// was lost.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()

	// Contended transactions need headroom beyond the engine default.
	if cfg.Options.MaxAttempts == 0 {
		cfg.Options.MaxAttempts = 64
	}

	cells := make([]*stm.Cell[int64], cfg.Cells)
	for i := range cells {
		cells[i] = stm.NewCell[int64](0)
	}

	cfg.Logger.Info("warmup",
		zap.Int("workers", cfg.Workers),
		zap.Int("ops", cfg.Warmup))
	if _, err := runPhase(ctx, cfg, cells, cfg.Warmup, nil); err != nil {
		return nil, err
	}
	warmupSum := sum(cells)

	// Measure from a clean slate.
	stm.Reset[int64]()
	lats := make([][]time.Duration, cfg.Workers)
	for i := range lats {
		lats[i] = make([]time.Duration, 0, cfg.Ops)
	}

	cfg.Logger.Info("measuring",
		zap.Int("workers", cfg.Workers),
		zap.Int("ops", cfg.Ops),
		zap.Int("cells", cfg.Cells),
		zap.Float64("read-ratio", cfg.ReadRatio))

	start := time.Now()
	writes, err := runPhase(ctx, cfg, cells, cfg.Ops, lats)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	report, err := newReport(cfg, elapsed, writes, lats)
	if err != nil {
		return nil, err
	}
	report.Conflicts = stm.Conflicts[int64]()
	report.Retries = stm.Retries[int64]()

	if got := sum(cells) - warmupSum; got != writes {
		return nil, fmt.Errorf("lost updates: cells sum to %d, committed %d writes", got, writes)
	}
	return report, nil
}

// runPhase runs ops transactions on each worker and returns the number
// of committed write transactions. When lats is non-nil, worker i
// appends one latency sample per transaction to lats[i].
func runPhase(ctx context.Context, cfg Config, cells []*stm.Cell[int64], ops int, lats [][]time.Duration) (int64, error) {
	writes := make([]int64, cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(i), uint64(ops)))
			for op := 0; op < ops; op++ {
				cell := cells[rng.IntN(len(cells))]
				body := increment(cell)
				opts := cfg.Options
				opts.Mode = stm.ReadWrite
				write := rng.Float64() >= cfg.ReadRatio
				if !write {
					body = observe(cell)
					opts.Mode = stm.ReadOnly
				}
				begin := time.Now()
				if err := stm.Atomic(ctx, opts, body); err != nil {
					return fmt.Errorf("worker %d op %d: %w", i, op, err)
				}
				if write {
					writes[i]++
				}
				if lats != nil {
					lats[i] = append(lats[i], time.Since(begin))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var total int64
	for _, n := range writes {
		total += n
	}
	return total, nil
}

func increment(c *stm.Cell[int64]) func(tx *stm.Txn[int64]) error {
	return func(tx *stm.Txn[int64]) error {
		n, err := tx.Read(c)
		if err != nil {
			return err
		}
		return tx.Write(c, n+1)
	}
}

func observe(c *stm.Cell[int64]) func(tx *stm.Txn[int64]) error {
	return func(tx *stm.Txn[int64]) error {
		_, err := tx.Read(c)
		return err
	}
}

func sum(cells []*stm.Cell[int64]) int64 {
	var total int64
	for _, c := range cells {
		v, _ := c.Snapshot()
		total += v
	}
	return total
}
