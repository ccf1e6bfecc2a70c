// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// Report summarizes one benchmark run.
type Report struct {
	Workers int
	Ops     int
	Cells   int
	Writes  int64

	Elapsed    time.Duration
	Throughput float64 // committed transactions per second

	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration

	Conflicts uint64
	Retries   uint64
}

func newReport(cfg Config, elapsed time.Duration, writes int64, lats [][]time.Duration) (*Report, error) {
	samples := make(stats.Float64Data, 0, cfg.Workers*cfg.Ops)
	for _, worker := range lats {
		for _, d := range worker {
			samples = append(samples, float64(d))
		}
	}

	r := &Report{
		Workers:    cfg.Workers,
		Ops:        cfg.Ops,
		Cells:      cfg.Cells,
		Writes:     writes,
		Elapsed:    elapsed,
		Throughput: float64(len(samples)) / elapsed.Seconds(),
	}

	mean, err := stats.Mean(samples)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(samples)
	if err != nil {
		return nil, err
	}
	p95, err := stats.Percentile(samples, 95)
	if err != nil {
		return nil, err
	}
	p99, err := stats.Percentile(samples, 99)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(samples)
	if err != nil {
		return nil, err
	}

	r.Mean = time.Duration(mean)
	r.Median = time.Duration(median)
	r.P95 = time.Duration(p95)
	r.P99 = time.Duration(p99)
	r.Max = time.Duration(max)
	return r, nil
}

// String renders the report as a human-readable block.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workers %d, ops/worker %d, cells %d\n", r.Workers, r.Ops, r.Cells)
	fmt.Fprintf(&b, "elapsed %v, throughput %.0f txn/s (%d writes)\n", r.Elapsed.Round(time.Millisecond), r.Throughput, r.Writes)
	fmt.Fprintf(&b, "latency mean %v, median %v, p95 %v, p99 %v, max %v\n",
		r.Mean.Round(time.Microsecond),
		r.Median.Round(time.Microsecond),
		r.P95.Round(time.Microsecond),
		r.P99.Round(time.Microsecond),
		r.Max.Round(time.Microsecond))
	fmt.Fprintf(&b, "conflicts %d, retries %d", r.Conflicts, r.Retries)
	return b.String()
}
