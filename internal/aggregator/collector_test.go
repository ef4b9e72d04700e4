package aggregator

import (
	"math/rand"
	"testing"

	"github.com/tarragon-labs/compsize/internal/btrfs"
)

func feed(c *Collector, extents []btrfs.ExtentInfo) {
	for _, e := range extents {
		c.insert(e)
	}
}

// Scenario A: single Regular extent, no compression.
func TestCollectorSingleRegularExtent(t *testing.T) {
	c := New()
	feed(c, []btrfs.ExtentInfo{
		{Kind: btrfs.Regular, Compression: btrfs.None, DiskKey: 1, Stat: btrfs.ExtentStat{Disk: 4096, Uncomp: 4096, Refd: 4096}},
	})
	c.stat.NFile = 1

	if c.stat.NFile != 1 || c.stat.NExtent != 1 || c.stat.NRef != 1 || c.stat.NInline != 0 {
		t.Fatalf("counts = %+v", c.stat)
	}
	want := btrfs.ExtentStat{Disk: 4096, Uncomp: 4096, Refd: 4096}
	if c.stat.PerComp[btrfs.None] != want {
		t.Fatalf("PerComp[None] = %+v, want %+v", c.stat.PerComp[btrfs.None], want)
	}
}

// Scenario B: reflink dedup.
func TestCollectorReflinkDedup(t *testing.T) {
	c := New()
	extent := btrfs.ExtentInfo{Kind: btrfs.Regular, Compression: btrfs.Zstd, DiskKey: 2, Stat: btrfs.ExtentStat{Disk: 8192, Uncomp: 8192, Refd: 8192}}
	feed(c, []btrfs.ExtentInfo{extent, extent})
	c.stat.NFile = 2

	if c.stat.NFile != 2 || c.stat.NExtent != 1 || c.stat.NRef != 2 {
		t.Fatalf("counts = %+v", c.stat)
	}
	want := btrfs.ExtentStat{Disk: 8192, Uncomp: 8192, Refd: 16384}
	if c.stat.PerComp[btrfs.Zstd] != want {
		t.Fatalf("PerComp[Zstd] = %+v, want %+v", c.stat.PerComp[btrfs.Zstd], want)
	}
}

// Scenario C: compressed inline.
func TestCollectorCompressedInline(t *testing.T) {
	c := New()
	feed(c, []btrfs.ExtentInfo{
		{Kind: btrfs.Inline, Compression: btrfs.Zlib, Stat: btrfs.ExtentStat{Disk: 1003, Uncomp: 3000, Refd: 3000}},
	})
	if c.stat.NInline != 1 {
		t.Fatalf("NInline = %d, want 1", c.stat.NInline)
	}
	want := btrfs.ExtentStat{Disk: 1003, Uncomp: 3000, Refd: 3000}
	if c.stat.PerComp[btrfs.Zlib] != want {
		t.Fatalf("PerComp[Zlib] = %+v, want %+v", c.stat.PerComp[btrfs.Zlib], want)
	}
}

// Property test #3: commutativity under permutation.
func TestCollectorCommutative(t *testing.T) {
	extents := []btrfs.ExtentInfo{
		{Kind: btrfs.Regular, Compression: btrfs.None, DiskKey: 1, Stat: btrfs.ExtentStat{Disk: 100, Uncomp: 100, Refd: 100}},
		{Kind: btrfs.Regular, Compression: btrfs.None, DiskKey: 1, Stat: btrfs.ExtentStat{Disk: 100, Uncomp: 100, Refd: 50}},
		{Kind: btrfs.Prealloc, Compression: btrfs.Zstd, DiskKey: 2, Stat: btrfs.ExtentStat{Disk: 200, Uncomp: 200, Refd: 200}},
		{Kind: btrfs.Inline, Compression: btrfs.Lzo, Stat: btrfs.ExtentStat{Disk: 30, Uncomp: 40, Refd: 40}},
	}

	base := New()
	feed(base, extents)

	for trial := 0; trial < 5; trial++ {
		shuffled := append([]btrfs.ExtentInfo(nil), extents...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		c := New()
		feed(c, shuffled)

		if c.stat != base.stat {
			t.Fatalf("trial %d: got %+v, want %+v", trial, c.stat, base.stat)
		}
	}
}

// Scenario D: hole. Handled upstream by the decoder (ParseRecord returns
// nil), so the Collector never even sees a record for it. Confirm the
// Collector's counters stay untouched when fed nothing.
func TestCollectorHoleNeverReachesCollector(t *testing.T) {
	c := New()
	if c.stat.NExtent != 0 || c.stat.NRef != 0 {
		t.Fatalf("counts = %+v, want zero", c.stat)
	}
}
