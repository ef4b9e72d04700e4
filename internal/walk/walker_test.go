package walk

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func deviceOf(t *testing.T, path string) uint64 {
	t.Helper()
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return uint64(st.Dev)
}

// TestWalkerEmitsAllRegularFiles exercises a Walker against a real small
// directory tree: two files at the root and one nested one level down,
// all on the same device, so everything should stay on the Walker's own
// stack without ever reaching the Director.
func TestWalkerEmitsAllRegularFiles(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.txt"), []byte("c"), 0o644); err != nil {
		t.Fatal(err)
	}

	toDirector := make(chan Msg, 8)
	assign := make(chan JobChunk, 1)
	workerCh := make(chan FileBatch, 8)

	w := NewWalker(0, toDirector, assign, false, workerCh, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		w.Run(ctx)
	}()

	assign <- JobChunk{Device: deviceOf(t, root), Dirs: []DirJob{{Path: root, Arg: root}}}

	select {
	case msg := <-toDirector:
		if msg.Kind != RequireJobs || msg.WalkerID != 0 {
			t.Fatalf("got %+v, want a RequireJobs from walker 0", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("walker never asked for more work after draining its stack")
	}

	close(assign)
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("walker never returned after its assignment channel closed")
	}

	var got []string
	for {
		select {
		case fb := <-workerCh:
			for _, fh := range fb.Files {
				got = append(got, fh.Path())
				if fh.Arg() != root {
					t.Errorf("file %s has arg %q, want %q", fh.Path(), fh.Arg(), root)
				}
			}
		default:
			if len(got) != 3 {
				t.Fatalf("got %d files %v, want 3", len(got), got)
			}
			return
		}
	}
}

// TestWalkerPushesBackCrossDeviceDirs stands for the case where, with
// one-file-system off, a subdirectory on a different device is handed to
// the Director rather than walked locally. A real second device isn't
// available under test, so it always skips and checks nothing; the
// Director's handling of per-device chunks is exercised by
// TestDirectorPartitionsByDevice with synthetic JobChunks, and the
// Walker's own cross-device branch is not exercised by any test.
func TestWalkerPushesBackCrossDeviceDirs(t *testing.T) {
	t.Skip("cross-device behavior requires a second real device; covered at the Director layer")
}
