// Package stm provides software transactional memory over shared cells.
//
// A Cell holds a single value guarded by a version counter. Application
// code groups reads and writes of cells into a transaction body and hands
// it to Atomic, which runs the body optimistically, validates the observed
// versions at commit time, and retries under a configurable backoff policy
// when a concurrent commit got there first.
//
// Example usage:
//
//	c := stm.NewCell(0)
//	err := stm.Atomic(ctx, stm.Options{}, func(tx *stm.Txn[int]) error {
//		n, err := tx.Read(c)
//		if err != nil {
//			return err
//		}
//		return tx.Write(c, n+1)
//	})
//
// The body may run more than once: it is re-executed from scratch on every
// retry, so it must be idempotent with respect to its own external side
// effects. Writes to cells are buffered in the transaction and only become
// visible on a successful commit. Blocking I/O inside a body is outside
// the contract.
//
// The commit protocol never takes a runtime lock. Cells are reserved with
// a compare-and-swap in ascending id order, revalidated against the
// transaction's snapshot, and published with a release increment, so two
// overlapping committers cannot deadlock and at most one wins any
// contested cell.
package stm

import (
	"context"
	"time"
)

// Sleeper waits for the given duration or until ctx is done, whichever
// comes first, returning ctx.Err() in the latter case. The engine uses it
// for the inter-attempt backoff wait; a cooperative host can supply a
// scheduler-aware implementation through Options.Sleep.
type Sleeper func(ctx context.Context, d time.Duration) error

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
