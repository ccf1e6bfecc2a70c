// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// stm-bench drives the transactional engine from many goroutines and
// prints a throughput/latency report.
//
// Usage:
//
//	stm-bench                          # defaults: 8 workers, 1 cell
//	stm-bench -w 32 -n 10000 -c 4      # 32 workers, 4 shared cells
//	stm-bench --config engine.toml     # engine options from a TOML file
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dacapoday/stm/bench"
	"github.com/dacapoday/stm/config"
)

var (
	workers    int
	ops        int
	cells      int
	readRatio  float64
	warmup     int
	configFile string
	verbose    bool
)

func main() {
	cmd := &cobra.Command{
		Use:          "stm-bench",
		Short:        "Contention benchmark for the stm engine",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 8, "number of concurrent workers")
	cmd.Flags().IntVarP(&ops, "ops", "n", 1000, "timed transactions per worker")
	cmd.Flags().IntVarP(&cells, "cells", "c", 1, "number of shared cells")
	cmd.Flags().Float64VarP(&readRatio, "read-ratio", "r", 0, "fraction of read-only transactions")
	cmd.Flags().IntVar(&warmup, "warmup", 100, "untimed transactions per worker before measuring")
	cmd.Flags().StringVar(&configFile, "config", "", "engine options TOML file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log benchmark progress")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.NewDefault()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := bench.Run(ctx, bench.Config{
		Workers:   workers,
		Ops:       ops,
		Cells:     cells,
		ReadRatio: readRatio,
		Warmup:    warmup,
		Options:   opts,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}
