// Package progress holds the atomic counters the Walker and Worker pools
// update as a crawl proceeds, so an optional live display can poll them
// without touching the pipeline's message channels.
package progress

import "sync/atomic"

// Tracker is a set of monotonically increasing counters, safe to share
// across every actor in the pipeline. A nil *Tracker is valid and every
// method on it is a no-op, so callers that don't want a live display can
// pass nil straight through the constructors without a branch.
type Tracker struct {
	walked    atomic.Uint64
	processed atomic.Uint64
	errors    atomic.Uint64
}

// New returns a fresh, zeroed Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Snapshot is a point-in-time read of a Tracker's counters.
type Snapshot struct {
	// Walked is the number of regular files the Walker pool has handed
	// to the Worker pool so far.
	Walked uint64
	// Processed is the number of files the Worker pool has finished
	// searching (successfully or not).
	Processed uint64
	// Errors is the number of path-scoped failures reported so far.
	Errors uint64
}

func (t *Tracker) IncWalked() {
	if t != nil {
		t.walked.Add(1)
	}
}

func (t *Tracker) IncProcessed() {
	if t != nil {
		t.processed.Add(1)
	}
}

func (t *Tracker) IncErrors() {
	if t != nil {
		t.errors.Add(1)
	}
}

// Snapshot reads all three counters. Safe to call on a nil Tracker, which
// always reads as zero.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	return Snapshot{
		Walked:    t.walked.Load(),
		Processed: t.processed.Load(),
		Errors:    t.errors.Load(),
	}
}
