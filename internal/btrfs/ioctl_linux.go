//go:build linux

package btrfs

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctlSearchKey mirrors struct btrfs_ioctl_search_key byte for byte: seven
// u64 fields, two u32 fields, nr_items, one padding u32, then four padding
// u64 fields. The padding fields are never read by this package but must
// stay in place; removing them would shift every field after them out of
// alignment with the kernel's own struct layout.
type ioctlSearchKey struct {
	TreeID      uint64
	MinObjectID uint64
	MaxObjectID uint64
	MinOffset   uint64
	MaxOffset   uint64
	MinTransID  uint64
	MaxTransID  uint64
	MinType     uint32
	MaxType     uint32
	NrItems     uint32
	unused      uint32
	unused1     uint64
	unused2     uint64
	unused3     uint64
	unused4     uint64
}

const ioctlSearchBufSize = 65536

// sv2Args mirrors struct btrfs_ioctl_search_args_v2.
type sv2Args struct {
	Key     ioctlSearchKey
	BufSize uint64
	Buf     [ioctlSearchBufSize]byte
}

// resultTerminalThreshold is the kernel's own internal item cap
// (BTRFS_SEARCH_ARGS_BUFSIZE-derived); returning fewer than this many items
// means the kernel had no more to give us.
const resultTerminalThreshold = 512

const (
	btrfsIoctlMagic    = 0x94
	btrfsTreeSearchV2N = 17
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead  = 2
	iocWrite = 1
)

func iowr(typ byte, nr byte, size uintptr) uintptr {
	const sizeMask = 1<<iocSizeBits - 1
	return (uintptr(iocRead|iocWrite) << iocDirShift) |
		(uintptr(typ) << iocTypeShift) |
		(uintptr(nr) << iocNRShift) |
		((size & sizeMask) << iocSizeShift)
}

var treeSearchV2Cmd = iowr(btrfsIoctlMagic, btrfsTreeSearchV2N, unsafe.Sizeof(sv2Args{}))

// ErrUnsupported is returned in place of ENOTTY, the kernel's signal that
// fd is not on a btrfs filesystem or predates TREE_SEARCH_V2.
var ErrUnsupported = errors.New("btrfs: not btrfs (or SEARCH_V2 unsupported)")

// Searcher issues TREE_SEARCH_V2 for one file at a time, reusing a single
// 64 KiB buffer across calls. It is not safe for concurrent use; callers
// should allocate one Searcher per Worker.
type Searcher struct {
	args sv2Args
}

// NewSearcher allocates a reusable ioctl argument buffer.
func NewSearcher() *Searcher {
	return &Searcher{}
}

// SearchFile walks every EXTENT_DATA record for inode ino on the open file
// descriptor fd, calling yield for each successfully parsed extent. It
// returns early if yield returns an error, or if the ioctl or the decoder
// fails.
func (s *Searcher) SearchFile(fd int, ino uint64, yield func(ExtentInfo) error) error {
	s.args.Key = ioctlSearchKey{
		TreeID:      0,
		MinObjectID: ino,
		MaxObjectID: ino,
		MinOffset:   0,
		MaxOffset:   ^uint64(0),
		MinTransID:  0,
		MaxTransID:  ^uint64(0),
		MinType:     extentDataKey,
		MaxType:     extentDataKey,
		NrItems:     ^uint32(0),
	}
	s.args.BufSize = ioctlSearchBufSize

	pos := 0
	nrest := uint32(0)
	last := false

	needIoctl := func() bool { return nrest == 0 && !last }
	finished := func() bool { return nrest == 0 && last }

	for {
		if needIoctl() {
			if err := s.call(fd); err != nil {
				return err
			}
			nrest = s.args.Key.NrItems
			last = nrest <= resultTerminalThreshold
			pos = 0
		}
		if finished() {
			return nil
		}

		header := DecodeSearchHeader(s.args.Buf[pos : pos+SearchHeaderSize])
		bodyStart := pos + SearchHeaderSize
		bodyEnd := bodyStart + int(header.Len)
		body := s.args.Buf[bodyStart:bodyEnd]
		pos = bodyEnd
		nrest--

		if needIoctl() {
			// Resume from just past the last record seen; the rest of the
			// key (max_offset, transid range, type range) is deliberately
			// left as-is across pages.
			s.args.Key.MinOffset = header.Offset + 1
			s.args.Key.NrItems = ^uint32(0)
		}

		info, err := ParseRecord(header, body)
		if err != nil {
			return err
		}
		if info == nil {
			continue // hole
		}
		if err := yield(*info); err != nil {
			return err
		}
	}
}

func (s *Searcher) call(fd int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), treeSearchV2Cmd, uintptr(unsafe.Pointer(&s.args)))
	if errno == 0 {
		return nil
	}
	if errno == unix.ENOTTY {
		return ErrUnsupported
	}
	return fmt.Errorf("btrfs: TREE_SEARCH_V2: %w", errno)
}
