// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package stm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsPerType(t *testing.T) {
	type red struct{ int }
	type blue struct{ int }

	Reset[red]()
	Reset[blue]()

	statsFor[red]().conflicts.Inc()
	statsFor[red]().retries.Inc()
	statsFor[red]().retries.Inc()

	require.Equal(t, uint64(1), Conflicts[red]())
	require.Equal(t, uint64(2), Retries[red]())

	// Counters are scoped per value type.
	require.Equal(t, uint64(0), Conflicts[blue]())
	require.Equal(t, uint64(0), Retries[blue]())
}

func TestStatsReset(t *testing.T) {
	type probe struct{ int }

	statsFor[probe]().conflicts.Add(7)
	statsFor[probe]().retries.Add(9)
	Reset[probe]()

	require.Equal(t, uint64(0), Conflicts[probe]())
	require.Equal(t, uint64(0), Retries[probe]())

	// Reset is idempotent.
	Reset[probe]()
	require.Equal(t, uint64(0), Conflicts[probe]())
}

func TestStatsSameCountersAcrossCalls(t *testing.T) {
	type probe struct{ uint }

	require.Same(t, statsFor[probe](), statsFor[probe]())
}

func TestStatsConcurrentRegistration(t *testing.T) {
	type probe struct{ int8 }
	Reset[probe]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				statsFor[probe]().conflicts.Inc()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(1600), Conflicts[probe]())
}
