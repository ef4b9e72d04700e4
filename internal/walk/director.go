package walk

import (
	"cmp"
	"context"
)

// LocalHighWater bounds how many directories a Walker keeps on its own
// local stack before pushing the overflow back to the Director. Chosen to
// keep a single Walker's working set small without causing churn on
// ordinary, moderately bushy trees.
const LocalHighWater = 64

// MsgKind distinguishes the two messages a Director accepts.
type MsgKind int

const (
	PushJobs MsgKind = iota
	RequireJobs
)

// Msg is the Director's single inbound message type.
type Msg struct {
	Kind     MsgKind
	Chunk    JobChunk
	WalkerID int
}

// Director owns the global queue of unexplored directories, partitioned by
// device id, and a set of idle Walker ids. It is a single actor: every
// field is touched only from Run's goroutine.
type Director struct {
	inbox  chan Msg
	assign map[int]chan JobChunk
	jobMgr map[uint64][]DirJob
	idle   map[int]bool
	n      int
}

// NewDirector creates a Director for n Walkers, returning it alongside the
// per-Walker assignment channels (capacity 1: a Walker is either working
// or idle, never holding a pending assignment).
func NewDirector(n int) (*Director, map[int]chan JobChunk) {
	assign := make(map[int]chan JobChunk, n)
	idle := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		assign[i] = make(chan JobChunk, 1)
		idle[i] = true
	}
	return &Director{
		inbox:  make(chan Msg, 64),
		assign: assign,
		jobMgr: make(map[uint64][]DirJob),
		idle:   idle,
		n:      n,
	}, assign
}

// Inbox returns the channel Walkers send PushJobs/RequireJobs messages on.
func (d *Director) Inbox() chan<- Msg {
	return d.inbox
}

// Seed populates the job queue before Run starts, from the CLI's top-level
// directory arguments. Called synchronously, before any Walker exists, so
// it needs no synchronization.
func (d *Director) Seed(device uint64, dirs []DirJob) {
	d.jobMgr[device] = append(d.jobMgr[device], dirs...)
}

// Run processes inbound messages until the crawl is finished (no queued
// directories and every Walker idle) or ctx is cancelled, closing every
// Walker's assignment channel on the way out so each Walker's receive
// unblocks with ok==false.
func (d *Director) Run(ctx context.Context) {
	defer d.closeAll()

	if d.balance() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.inbox:
			if !ok {
				return
			}
			switch msg.Kind {
			case PushJobs:
				d.jobMgr[msg.Chunk.Device] = append(d.jobMgr[msg.Chunk.Device], msg.Chunk.Dirs...)
			case RequireJobs:
				d.idle[msg.WalkerID] = true
			}
			if d.balance() {
				return
			}
		}
	}
}

// balance runs one pass of the Director's policy: assign work to idle
// Walkers while any is possible, and report whether the crawl is now
// finished. Walkers and devices are picked in ascending id/device order
// so the assignment sequence is deterministic rather than following Go's
// randomized map iteration.
func (d *Director) balance() bool {
	if len(d.jobMgr) == 0 && len(d.idle) == d.n {
		return true
	}
	for len(d.idle) > 0 && len(d.jobMgr) > 0 {
		walkerID := minKey(d.idle)
		delete(d.idle, walkerID)

		device := minKey(d.jobMgr)
		bucket := d.jobMgr[device]
		n := LocalHighWater / 2
		if n > len(bucket) {
			n = len(bucket)
		}
		take := append([]DirJob(nil), bucket[:n]...)
		rest := bucket[n:]
		if len(rest) == 0 {
			delete(d.jobMgr, device)
		} else {
			d.jobMgr[device] = rest
		}
		d.assign[walkerID] <- JobChunk{Device: device, Dirs: take}
	}
	return false
}

func (d *Director) closeAll() {
	for _, ch := range d.assign {
		close(ch)
	}
}

// minKey returns the smallest key in m. Only called when m is non-empty.
func minKey[K cmp.Ordered, V any](m map[K]V) K {
	first := true
	var min K
	for k := range m {
		if first || k < min {
			min = k
			first = false
		}
	}
	return min
}
