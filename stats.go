// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package stm

import (
	"reflect"
	"sync"

	"go.uber.org/atomic"
)

// counters holds the diagnostics for one cell value type. The fields are
// monotonic; Reset is the only way to decrease them. They are a
// debugging aid, never a correctness input.
type counters struct {
	conflicts atomic.Uint64
	retries   atomic.Uint64
}

// registry maps a value type descriptor to its counters. Generic
// instantiations cannot carry their own globals, so the counters live in
// a process-wide registry keyed by reflect.Type.
var registry sync.Map

func statsFor[T any]() *counters {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if c, ok := registry.Load(key); ok {
		return c.(*counters)
	}
	c, _ := registry.LoadOrStore(key, new(counters))
	return c.(*counters)
}

// Conflicts returns the number of commit attempts over cells of type T
// that failed validation since the last Reset.
func Conflicts[T any]() uint64 {
	return statsFor[T]().conflicts.Load()
}

// Retries returns the number of transaction re-runs over cells of type T
// since the last Reset.
func Retries[T any]() uint64 {
	return statsFor[T]().retries.Load()
}

// Reset zeroes the conflict and retry counters for type T.
func Reset[T any]() {
	c := statsFor[T]()
	c.conflicts.Store(0)
	c.retries.Store(0)
}
