package walk

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/tarragon-labs/compsize/internal/batch"
	"github.com/tarragon-labs/compsize/internal/progress"
)

// FileBatch is the message a Walker's batcher ships to the Worker pool.
type FileBatch struct {
	Files []FileHandle
}

// Walker walks directories depth-first from its own local stack, emitting
// regular files to the Worker pool and pushing excess directories back to
// the Director when its local stack grows past LocalHighWater. It holds no
// durable directory list between assignments.
type Walker struct {
	id         int
	toDirector chan<- Msg
	assign     <-chan JobChunk
	oneFS      bool
	out        *batch.Batcher[FileHandle, FileBatch]
	tracker    *progress.Tracker

	device uint64
	stack  []DirJob
}

// NewWalker creates a Walker that reports to toDirector, receives
// assignments on assign, and emits files (via its own batcher) on
// workerCh. tracker may be nil.
func NewWalker(id int, toDirector chan<- Msg, assign <-chan JobChunk, oneFS bool, workerCh chan<- FileBatch, tracker *progress.Tracker) *Walker {
	return &Walker{
		id:         id,
		toDirector: toDirector,
		assign:     assign,
		oneFS:      oneFS,
		out:        batch.New(workerCh, func(xs []FileHandle) FileBatch { return FileBatch{Files: xs} }),
		tracker:    tracker,
	}
}

// Run processes assignments until the Director closes assign or ctx is
// cancelled.
func (w *Walker) Run(ctx context.Context) {
	defer w.out.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-w.assign:
			if !ok {
				return
			}
			w.device = chunk.Device
			w.stack = append(w.stack[:0], chunk.Dirs...)
			if !w.drain(ctx) {
				return
			}
			select {
			case w.toDirector <- Msg{Kind: RequireJobs, WalkerID: w.id}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// drain empties the local stack, returning false if it exited early due to
// cancellation.
func (w *Walker) drain(ctx context.Context) bool {
	for len(w.stack) > 0 {
		if ctx.Err() != nil {
			return false
		}
		job := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if !w.processDir(ctx, job) {
			return false
		}

		if len(w.stack) > LocalHighWater {
			keep := LocalHighWater / 2
			overflow := append([]DirJob(nil), w.stack[:len(w.stack)-keep]...)
			w.stack = w.stack[len(w.stack)-keep:]
			select {
			case w.toDirector <- Msg{Kind: PushJobs, Chunk: JobChunk{Device: w.device, Dirs: overflow}}:
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}

// processDir enumerates one directory, queuing same-device subdirectories
// locally, forwarding cross-device subdirectories to the Director, and
// emitting regular files to the Worker pool. It returns false only on
// cancellation.
func (w *Walker) processDir(ctx context.Context, job DirJob) bool {
	dir := job.Handle
	if dir == nil {
		d, err := OpenDir(job.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", job.Path, err)
			w.tracker.IncErrors()
			return true
		}
		dir = d
	}
	defer dir.Release()

	entries, err := dir.ReadEntries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", job.Path, err)
		w.tracker.IncErrors()
		return true
	}

	crossDevice := make(map[uint64][]DirJob)

	for _, de := range entries {
		if ctx.Err() != nil {
			return false
		}

		childPath := join(job.Path, de.Name())
		info, err := de.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", childPath, err)
			w.tracker.IncErrors()
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}
		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			continue
		}
		dev := uint64(st.Dev)

		switch {
		case info.IsDir():
			if dev == w.device {
				w.stack = append(w.stack, DirJob{Path: childPath, Arg: job.Arg})
			} else if !w.oneFS {
				handle, err := OpenDir(childPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", childPath, err)
					w.tracker.IncErrors()
					continue
				}
				crossDevice[dev] = append(crossDevice[dev], DirJob{Path: childPath, Handle: handle, Arg: job.Arg})
			}
			// one-file-system is on and the device differs: skip silently.

		case info.Mode().IsRegular():
			fh := NewFileHandle(dir.Retain(), de.Name(), childPath, st.Ino, job.Arg)
			if err := w.out.Push(ctx, fh); err != nil {
				return false
			}
			w.tracker.IncWalked()

		default:
			// sockets, fifos, devices: skip.
		}
	}

	for dev, dirs := range crossDevice {
		select {
		case w.toDirector <- Msg{Kind: PushJobs, Chunk: JobChunk{Device: dev, Dirs: dirs}}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
