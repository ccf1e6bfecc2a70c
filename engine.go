// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package stm

import (
	"context"
	"fmt"
	"time"
)

// Mode selects whether a transaction may write.
type Mode uint8

const (
	// ReadWrite transactions may read and write cells.
	ReadWrite Mode = iota
	// ReadOnly transactions fail with ErrReadOnly on any write.
	ReadOnly
)

func (m Mode) String() string {
	switch m {
	case ReadWrite:
		return "read-write"
	case ReadOnly:
		return "read-only"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "read-write", "":
		return ReadWrite, nil
	case "read-only":
		return ReadOnly, nil
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// Options configures one Atomic call. The zero value is usable: a zero
// MaxAttempts, BaseDelay, MaxDelay or Sleep is replaced by its default.
// Strategy and Mode are used as given, so a zero Strategy is Constant.
type Options struct {
	// MaxAttempts bounds the number of commit attempts. Default 3.
	MaxAttempts uint32
	// BaseDelay is the base of the backoff computation. Default 100ms.
	BaseDelay time.Duration
	// MaxDelay caps a single backoff interval. Default 2s.
	MaxDelay time.Duration
	// Strategy selects the backoff curve. DefaultOptions sets
	// ExponentialWithJitter; the zero value is Constant.
	Strategy Strategy
	// Mode selects read-write (default) or read-only execution.
	Mode Mode
	// Sleep overrides the inter-attempt wait. Default waits on a timer,
	// honoring context cancellation.
	Sleep Sleeper
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Strategy:    ExponentialWithJitter,
		Mode:        ReadWrite,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxAttempts == 0 {
		o.MaxAttempts = def.MaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = def.BaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = def.MaxDelay
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
	return o
}

// Atomic runs body inside a transaction and commits it, retrying with
// backoff until the commit succeeds, ctx is cancelled, or the attempt
// budget is exhausted.
//
// The body receives a fresh Txn on every attempt and is re-run from
// scratch after a conflict, so it must be idempotent with respect to any
// side effects outside the transaction. An error returned by the body is
// propagated unchanged and ends the transaction without retrying; the
// attempt's buffered writes are discarded.
//
// On failure Atomic returns ctx.Err() if the context was cancelled, or
// an error wrapping ErrTimeout once MaxAttempts commits have failed.
func Atomic[T any](ctx context.Context, opts Options, body func(tx *Txn[T]) error) error {
	opts = opts.withDefaults()
	stats := statsFor[T]()

	for attempt := uint32(0); attempt < opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := newTxn[T](opts.Mode == ReadOnly, stats)
		if err := body(tx); err != nil {
			return err
		}
		if tx.commit() {
			return nil
		}
		if attempt+1 == opts.MaxAttempts {
			break
		}
		stats.retries.Inc()
		d := Delay(opts.Strategy, attempt+1, opts.BaseDelay, opts.MaxDelay)
		if err := opts.Sleep(ctx, d); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrTimeout, opts.MaxAttempts)
}
