package btrfs

import (
	"encoding/binary"
	"testing"
)

// encodeInline builds a well-formed inline EXTENT_DATA item body for tests.
func encodeInline(compression Compression, ramBytes uint64, inlineData []byte) []byte {
	body := make([]byte, fileExtentHeaderSize+len(inlineData))
	binary.LittleEndian.PutUint64(body[0:8], 0) // generation, unused
	binary.LittleEndian.PutUint64(body[8:16], ramBytes)
	body[16] = byte(compression)
	body[17] = 0 // encryption, unused
	binary.LittleEndian.PutUint16(body[18:20], 0)
	body[20] = byte(Inline)
	copy(body[fileExtentHeaderSize:], inlineData)
	return body
}

// encodeRegular builds a well-formed Regular/Prealloc EXTENT_DATA item body.
func encodeRegular(kind ExtentType, compression Compression, diskBytenr, diskNumBytes, ramBytes, numBytes uint64) []byte {
	body := make([]byte, regularBodySize)
	binary.LittleEndian.PutUint64(body[0:8], 0)
	binary.LittleEndian.PutUint64(body[8:16], ramBytes)
	body[16] = byte(compression)
	body[17] = 0
	binary.LittleEndian.PutUint16(body[18:20], 0)
	body[20] = byte(kind)
	binary.LittleEndian.PutUint64(body[21:29], diskBytenr)
	binary.LittleEndian.PutUint64(body[29:37], diskNumBytes)
	binary.LittleEndian.PutUint64(body[37:45], 0) // offset within extent, unused
	binary.LittleEndian.PutUint64(body[45:53], numBytes)
	return body
}

func extentDataHeader(length int) SearchHeader {
	return SearchHeader{Type: extentDataKey, Len: uint32(length)}
}

// Scenario A: single Regular extent, no compression.
func TestParseRecordRegularNoCompression(t *testing.T) {
	body := encodeRegular(Regular, None, 0x1000, 4096, 4096, 4096)
	info, err := ParseRecord(extentDataHeader(len(body)), body)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if info == nil {
		t.Fatal("ParseRecord returned nil, want a record")
	}
	if info.Kind != Regular || info.Compression != None {
		t.Fatalf("got kind=%v compression=%v", info.Kind, info.Compression)
	}
	if info.DiskKey != 0x1000>>12 {
		t.Fatalf("DiskKey = %#x, want %#x", info.DiskKey, uint64(0x1000>>12))
	}
	want := ExtentStat{Disk: 4096, Uncomp: 4096, Refd: 4096}
	if info.Stat != want {
		t.Fatalf("Stat = %+v, want %+v", info.Stat, want)
	}
}

// Scenario C: compressed inline.
func TestParseRecordInline(t *testing.T) {
	body := encodeInline(Zlib, 3000, make([]byte, 1024-fileExtentHeaderSize))
	info, err := ParseRecord(extentDataHeader(len(body)), body)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	want := ExtentStat{Disk: 1024 - fileExtentHeaderSize, Uncomp: 3000, Refd: 3000}
	if info.Stat != want {
		t.Fatalf("Stat = %+v, want %+v", info.Stat, want)
	}
	if info.Kind != Inline || info.Compression != Zlib {
		t.Fatalf("got kind=%v compression=%v", info.Kind, info.Compression)
	}
}

// Scenario D: hole.
func TestParseRecordHole(t *testing.T) {
	body := encodeRegular(Regular, None, 0, 0, 0, 0)
	info, err := ParseRecord(extentDataHeader(len(body)), body)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if info != nil {
		t.Fatalf("got %+v, want nil (hole dropped)", info)
	}
}

// Scenario E: misaligned extent.
func TestParseRecordMisaligned(t *testing.T) {
	body := encodeRegular(Regular, None, 0x1001, 4096, 4096, 4096)
	_, err := ParseRecord(extentDataHeader(len(body)), body)
	if err == nil {
		t.Fatal("expected an alignment error, got nil")
	}
}

func TestParseRecordBadLength(t *testing.T) {
	body := encodeRegular(Regular, None, 0x1000, 4096, 4096, 4096)
	body = body[:len(body)-1]
	_, err := ParseRecord(extentDataHeader(len(body)), body)
	if err == nil {
		t.Fatal("expected a length error, got nil")
	}
}

func TestParseRecordCorruptCompression(t *testing.T) {
	body := encodeRegular(Regular, None, 0x1000, 4096, 4096, 4096)
	body[16] = 200
	_, err := ParseRecord(extentDataHeader(len(body)), body)
	if err == nil {
		t.Fatal("expected a corruption error, got nil")
	}
}

// Property test #5: parse(encode(x)) == x modulo holes and the disk_key shift.
func TestParseRecordRoundtrip(t *testing.T) {
	cases := []struct {
		kind         ExtentType
		compression  Compression
		diskBytenr   uint64
		diskNumBytes uint64
		ramBytes     uint64
		numBytes     uint64
	}{
		{Regular, None, 0x1000, 4096, 4096, 4096},
		{Regular, Zstd, 0x2000, 8192, 8192, 4096},
		{Prealloc, Lzo, 0x3000, 16384, 16384, 16384},
	}
	for _, c := range cases {
		body := encodeRegular(c.kind, c.compression, c.diskBytenr, c.diskNumBytes, c.ramBytes, c.numBytes)
		info, err := ParseRecord(extentDataHeader(len(body)), body)
		if err != nil {
			t.Fatalf("ParseRecord: %v", err)
		}
		if info.Kind != c.kind || info.Compression != c.compression {
			t.Fatalf("got kind=%v compression=%v, want kind=%v compression=%v", info.Kind, info.Compression, c.kind, c.compression)
		}
		if info.DiskKey != c.diskBytenr>>12 {
			t.Fatalf("DiskKey = %#x, want %#x", info.DiskKey, c.diskBytenr>>12)
		}
		want := ExtentStat{Disk: c.diskNumBytes, Uncomp: c.ramBytes, Refd: c.numBytes}
		if info.Stat != want {
			t.Fatalf("Stat = %+v, want %+v", info.Stat, want)
		}
	}
}
