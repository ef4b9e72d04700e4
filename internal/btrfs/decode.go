package btrfs

import (
	"encoding/binary"
	"fmt"
)

// SearchHeaderSize is the on-wire size of one SearchHeader: three u64
// fields followed by two u32 fields, all little-endian and unpadded.
const SearchHeaderSize = 8 + 8 + 8 + 4 + 4

// fileExtentHeaderSize is the fixed prefix of every EXTENT_DATA item body:
// generation(8) ram_bytes(8) compression(1) encryption(1) other_encoding(2) type(1).
const fileExtentHeaderSize = 8 + 8 + 1 + 1 + 2 + 1

// regularBodySize is the total body length required for Regular/Prealloc
// extents: the 21-byte header plus 32 bytes of disk_bytenr/disk_num_bytes/
// offset/num_bytes.
const regularBodySize = fileExtentHeaderSize + 32

const extentDataKey = 108

// SearchHeader precedes every item body in the ioctl's result buffer.
type SearchHeader struct {
	TransID  uint64
	ObjectID uint64
	Offset   uint64
	Type     uint32
	Len      uint32
}

// DecodeSearchHeader reads a SearchHeader from an unaligned byte slice. b
// must be at least SearchHeaderSize long.
func DecodeSearchHeader(b []byte) SearchHeader {
	return SearchHeader{
		TransID:  binary.LittleEndian.Uint64(b[0:8]),
		ObjectID: binary.LittleEndian.Uint64(b[8:16]),
		Offset:   binary.LittleEndian.Uint64(b[16:24]),
		Type:     binary.LittleEndian.Uint32(b[24:28]),
		Len:      binary.LittleEndian.Uint32(b[28:32]),
	}
}

// ParseRecord decodes one EXTENT_DATA item body into an ExtentInfo.
//
// It returns (nil, nil) for holes (disk_bytenr == 0), which the caller
// drops silently, and a non-nil error for anything the kernel should never
// actually produce: a corrupt compression/type byte, a truncated
// Regular/Prealloc body, or a misaligned disk_bytenr.
func ParseRecord(header SearchHeader, body []byte) (*ExtentInfo, error) {
	if header.Type != extentDataKey {
		return nil, nil
	}
	if len(body) < fileExtentHeaderSize {
		return nil, fmt.Errorf("btrfs: extent item body too short (%d bytes)", len(body))
	}

	ramBytes := binary.LittleEndian.Uint64(body[8:16])
	compression := Compression(body[16])
	extentType := ExtentType(body[20])

	if compression >= nCompression {
		return nil, fmt.Errorf("btrfs: corrupt compression byte %d", compression)
	}
	if extentType > Prealloc {
		return nil, fmt.Errorf("btrfs: corrupt extent type byte %d", extentType)
	}

	switch extentType {
	case Inline:
		disk := uint64(len(body)) - fileExtentHeaderSize
		return &ExtentInfo{
			Kind:        Inline,
			Compression: compression,
			Stat: ExtentStat{
				Disk:   disk,
				Uncomp: ramBytes,
				Refd:   ramBytes,
			},
		}, nil

	case Regular, Prealloc:
		if len(body) != regularBodySize {
			return nil, fmt.Errorf("btrfs: regular extent body is %d bytes, want %d", len(body), regularBodySize)
		}
		diskBytenr := binary.LittleEndian.Uint64(body[21:29])
		diskNumBytes := binary.LittleEndian.Uint64(body[29:37])
		numBytes := binary.LittleEndian.Uint64(body[45:53])

		if diskBytenr == 0 {
			return nil, nil // hole
		}
		if diskBytenr&0xFFF != 0 {
			return nil, fmt.Errorf("btrfs: disk_bytenr 0x%x is not 4KiB-aligned", diskBytenr)
		}

		return &ExtentInfo{
			Kind:        extentType,
			Compression: compression,
			DiskKey:     diskBytenr >> 12,
			Stat: ExtentStat{
				Disk:   diskNumBytes,
				Uncomp: ramBytes,
				Refd:   numBytes,
			},
		}, nil

	default:
		// Unreachable given the extentType > Prealloc guard above.
		return nil, fmt.Errorf("btrfs: unhandled extent type %d", extentType)
	}
}
