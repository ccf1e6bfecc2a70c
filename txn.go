// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package stm

import (
	"cmp"
	"slices"
)

// Txn is the per-attempt transactional context handed to a body by
// Atomic. It buffers reads and writes against cells of type T and
// remembers, for every cell it touches, the first version it observed.
// Commit validates the whole attempt against those frozen versions, so
// the attempt either installs its writes against its original view of
// the world or fails and is retried.
//
// All maps key on cell identity (the pointer), never on the stored
// value: two distinct cells holding equal values are distinct.
//
// A Txn is local to the attempt that created it and must not be shared
// or retained after the body returns.
type Txn[T any] struct {
	reads     map[*Cell[T]]T
	writes    map[*Cell[T]]T
	snapshots map[*Cell[T]]uint64
	readOnly  bool
	stats     *counters
}

func newTxn[T any](readOnly bool, stats *counters) *Txn[T] {
	return &Txn[T]{
		reads:     make(map[*Cell[T]]T),
		writes:    make(map[*Cell[T]]T),
		snapshots: make(map[*Cell[T]]uint64),
		readOnly:  readOnly,
		stats:     stats,
	}
}

// Read returns the cell's value as seen by this transaction: a buffered
// write if one exists, else the value cached from an earlier read, else
// a fresh snapshot. The version recorded for the cell is the first one
// observed this attempt and is never refreshed.
func (tx *Txn[T]) Read(c *Cell[T]) (T, error) {
	if c == nil {
		var zero T
		return zero, ErrNilCell
	}
	if v, ok := tx.writes[c]; ok {
		return v, nil
	}
	if v, ok := tx.reads[c]; ok {
		return v, nil
	}
	v, ver := c.Snapshot()
	tx.reads[c] = v
	if _, ok := tx.snapshots[c]; !ok {
		tx.snapshots[c] = ver
	}
	return v, nil
}

// Write buffers v as the cell's value for the remainder of this attempt.
// Subsequent reads of the cell return v. The write reaches the cell only
// if the attempt commits.
func (tx *Txn[T]) Write(c *Cell[T], v T) error {
	if c == nil {
		return ErrNilCell
	}
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.writes[c] = v
	tx.reads[c] = v
	if _, ok := tx.snapshots[c]; !ok {
		// Only the version matters here: the buffered write shadows
		// whatever value the cell currently holds.
		_, ver := c.Snapshot()
		tx.snapshots[c] = ver
	}
	return nil
}

// commit attempts to install the write buffer. It reports false on any
// validation failure, in which case no cell's value was changed and every
// reservation has been released (a released reservation still advances
// that cell's version by 2).
func (tx *Txn[T]) commit() bool {
	if tx.readOnly || len(tx.writes) == 0 {
		for c, ver := range tx.snapshots {
			if c.Version() != ver {
				return tx.conflict()
			}
		}
		return true
	}

	order := make([]*Cell[T], 0, len(tx.writes))
	for c := range tx.writes {
		if _, ok := tx.snapshots[c]; !ok {
			return tx.conflict()
		}
		order = append(order, c)
	}

	// Reserving in ascending id order is the deadlock defence: two
	// committers with overlapping write sets collide on their first
	// contested cell, and the loser aborts instead of circular-waiting.
	slices.SortFunc(order, func(a, b *Cell[T]) int {
		return cmp.Compare(a.id, b.id)
	})

	for i, c := range order {
		if !c.tryReserve(tx.snapshots[c]) {
			release(order[:i])
			return tx.conflict()
		}
	}

	// Revalidate the read-only part of the footprint against the frozen
	// snapshot versions. An odd version can never equal the (even)
	// snapshot, so in-flight writers fail this check too.
	for c, ver := range tx.snapshots {
		if _, written := tx.writes[c]; written {
			continue
		}
		if c.Version() != ver {
			release(order)
			return tx.conflict()
		}
	}

	for _, c := range order {
		c.publish(tx.writes[c])
	}
	return true
}

func (tx *Txn[T]) conflict() bool {
	tx.stats.conflicts.Inc()
	return false
}

// release aborts the reservations in reverse acquisition order.
func release[T any](reserved []*Cell[T]) {
	for i := len(reserved) - 1; i >= 0; i-- {
		reserved[i].abortRelease()
	}
}
