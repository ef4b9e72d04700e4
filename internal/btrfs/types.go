// Package btrfs decodes the variable-length record stream returned by the
// btrfs TREE_SEARCH_V2 ioctl into the ExtentInfo values the rest of the
// pipeline aggregates.
package btrfs

import "fmt"

// ExtentType distinguishes how a file extent's data is stored.
type ExtentType uint8

const (
	Inline ExtentType = iota
	Regular
	Prealloc
)

func (t ExtentType) String() string {
	switch t {
	case Inline:
		return "inline"
	case Regular:
		return "regular"
	case Prealloc:
		return "prealloc"
	default:
		return fmt.Sprintf("extenttype(%d)", uint8(t))
	}
}

// Compression enumerates the transparent compression algorithms btrfs can
// apply to an extent. The numeric values match the on-disk encoding.
type Compression uint8

const (
	None Compression = iota
	Zlib
	Lzo
	Zstd
	nCompression // sentinel, not a real compression id
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Lzo:
		return "lzo"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// NumCompression is the size CompsizeStat.PerComp arrays are indexed over.
const NumCompression = int(nCompression)

// ExtentStat is the three-number accumulator used both per-compression-class
// and for the prealloc bucket.
type ExtentStat struct {
	Disk   uint64 // bytes physically stored on disk
	Uncomp uint64 // logical uncompressed bytes
	Refd   uint64 // bytes this particular reference covers
}

// Add accumulates o into s in place.
func (s *ExtentStat) Add(o ExtentStat) {
	s.Disk += o.Disk
	s.Uncomp += o.Uncomp
	s.Refd += o.Refd
}

// IsEmpty reports whether the bucket ever received an uncompressed byte.
func (s ExtentStat) IsEmpty() bool {
	return s.Uncomp == 0
}

// Percent returns disk*100/uncomp. The caller must guard against IsEmpty.
func (s ExtentStat) Percent() uint64 {
	return s.Disk * 100 / s.Uncomp
}

// ExtentInfo is the pipeline's atomic unit: one parsed file-extent record.
type ExtentInfo struct {
	Kind        ExtentType
	Compression Compression
	// DiskKey identifies the physical extent for Regular/Prealloc
	// (disk_bytenr >> 12); unused and always zero for Inline.
	DiskKey uint64
	Stat    ExtentStat
}
