// Package aggregator implements the Collector: the single actor that owns
// the seen-extent set and the running CompsizeStat, and hands the final
// CompsizeStat back once every Worker has finished.
package aggregator

import (
	"github.com/tarragon-labs/compsize/internal/btrfs"
)

// CompsizeStat is the aggregator's accumulator, matching the counters and
// per-compression-class totals compsize itself reports.
type CompsizeStat struct {
	NFile    uint64
	NInline  uint64
	NRef     uint64
	NExtent  uint64
	PerComp  [btrfs.NumCompression]btrfs.ExtentStat
	Prealloc btrfs.ExtentStat
}

// TotalUncomp sums uncompressed bytes across every bucket, used to detect
// the "nothing to report" edge case.
func (s *CompsizeStat) TotalUncomp() uint64 {
	total := s.Prealloc.Uncomp
	for _, c := range s.PerComp {
		total += c.Uncomp
	}
	return total
}

// MsgKind distinguishes the two message variants the Collector accepts.
type MsgKind int

const (
	MsgExtents MsgKind = iota
	MsgNFile
)

// Msg is the Collector's single inbound message type; exactly one of
// Extents or NFile is meaningful depending on Kind.
type Msg struct {
	Kind    MsgKind
	Extents []btrfs.ExtentInfo
	NFile   uint64
}

// Collector owns CompsizeStat and the seen-extent set. It is single
// threaded: every field below is touched only from Run's goroutine, so no
// locking is needed even though multiple Workers feed it concurrently
// through the channel.
type Collector struct {
	stat CompsizeStat
	seen map[uint64]struct{}
}

// New creates an empty Collector.
func New() *Collector {
	return &Collector{seen: make(map[uint64]struct{})}
}

// Run drains in until it is closed, applying every message to the running
// statistics, and returns the final CompsizeStat. It never itself decides
// whether to render; that is the caller's job once it has also consulted
// the global error flag.
func (c *Collector) Run(in <-chan Msg) CompsizeStat {
	for msg := range in {
		switch msg.Kind {
		case MsgExtents:
			for _, e := range msg.Extents {
				c.insert(e)
			}
		case MsgNFile:
			c.stat.NFile += msg.NFile
		}
	}
	return c.stat
}

// insert applies the core counting rule from one parsed extent record.
func (c *Collector) insert(e btrfs.ExtentInfo) {
	switch e.Kind {
	case btrfs.Inline:
		c.stat.NInline++
		c.stat.PerComp[e.Compression].Add(e.Stat)

	case btrfs.Regular:
		c.stat.NRef++
		c.stat.PerComp[e.Compression].Refd += e.Stat.Refd
		if c.firstSeen(e.DiskKey) {
			c.stat.NExtent++
			c.stat.PerComp[e.Compression].Disk += e.Stat.Disk
			c.stat.PerComp[e.Compression].Uncomp += e.Stat.Uncomp
		}

	case btrfs.Prealloc:
		c.stat.NRef++
		c.stat.Prealloc.Refd += e.Stat.Refd
		if c.firstSeen(e.DiskKey) {
			c.stat.NExtent++
			c.stat.Prealloc.Disk += e.Stat.Disk
			c.stat.Prealloc.Uncomp += e.Stat.Uncomp
		}
	}
}

func (c *Collector) firstSeen(diskKey uint64) bool {
	if _, ok := c.seen[diskKey]; ok {
		return false
	}
	c.seen[diskKey] = struct{}{}
	return true
}
