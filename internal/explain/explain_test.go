package explain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tarragon-labs/compsize/internal/btrfs"
)

func TestExplainerGroupsByArgument(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	e.Insert("/data/a", btrfs.Zstd, 100, 200)
	e.Insert("/data/a", btrfs.Zstd, 50, 50)
	e.Insert("/data/b", btrfs.None, 10, 10)

	var buf bytes.Buffer
	if err := e.Report(&buf); err != nil {
		t.Fatalf("Report: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "/data/a") || !strings.Contains(lines[1], "150") {
		t.Fatalf("expected /data/a to sort first with disk=150, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "/data/b") || !strings.Contains(lines[2], "10") {
		t.Fatalf("expected /data/b second with disk=10, got %q", lines[2])
	}
}

func TestExplainerGroupsByCompression(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	e.Insert("/data/a", btrfs.Zstd, 100, 200)
	e.Insert("/data/a", btrfs.None, 40, 40)

	var buf bytes.Buffer
	if err := e.Report(&buf); err != nil {
		t.Fatalf("Report: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + one row per compression class:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "zstd") || !strings.Contains(lines[1], "100") {
		t.Fatalf("expected the zstd row to sort first with disk=100, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "none") || !strings.Contains(lines[2], "40") {
		t.Fatalf("expected the none row second with disk=40, got %q", lines[2])
	}
}

func TestExplainerReportEmpty(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	var buf bytes.Buffer
	if err := e.Report(&buf); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "Argument  Compression  Disk  Uncompressed" {
		t.Fatalf("expected only the header row, got %q", buf.String())
	}
}
