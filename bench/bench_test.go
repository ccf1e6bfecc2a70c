// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dacapoday/stm"
)

func smallConfig() Config {
	return Config{
		Workers: 4,
		Ops:     200,
		Cells:   2,
		Warmup:  20,
		Options: stm.Options{
			MaxAttempts: 64,
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
			Strategy:    stm.Constant,
		},
	}
}

func TestRun(t *testing.T) {
	cfg := smallConfig()
	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, cfg.Workers, report.Workers)
	require.Equal(t, cfg.Ops, report.Ops)
	require.Equal(t, int64(cfg.Workers*cfg.Ops), report.Writes)
	require.Greater(t, report.Throughput, 0.0)
	require.Greater(t, report.Elapsed, time.Duration(0))
	require.GreaterOrEqual(t, report.Max, report.P99)
	require.GreaterOrEqual(t, report.P99, report.Median)
}

func TestRunReadMix(t *testing.T) {
	cfg := smallConfig()
	cfg.ReadRatio = 0.5
	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	total := int64(cfg.Workers * cfg.Ops)
	require.Less(t, report.Writes, total)
	require.Greater(t, report.Writes, int64(0))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, smallConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 1000, cfg.Ops)
	require.Equal(t, 1, cfg.Cells)
	require.Equal(t, 100, cfg.Warmup)
	require.NotNil(t, cfg.Logger)
}

func TestReportString(t *testing.T) {
	report, err := Run(context.Background(), smallConfig())
	require.NoError(t, err)

	out := report.String()
	require.Contains(t, out, "throughput")
	require.Contains(t, out, "latency")
	require.Contains(t, out, "conflicts")
}
