// Package pipeline wires the Director, Walker pool, Worker pool and
// Aggregator into the acyclic message-flow graph the rest of this module
// implements piece by piece, and renders the final report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tarragon-labs/compsize/internal/aggregator"
	"github.com/tarragon-labs/compsize/internal/config"
	"github.com/tarragon-labs/compsize/internal/explain"
	"github.com/tarragon-labs/compsize/internal/globalerr"
	"github.com/tarragon-labs/compsize/internal/progress"
	"github.com/tarragon-labs/compsize/internal/report"
	"github.com/tarragon-labs/compsize/internal/walk"
	"github.com/tarragon-labs/compsize/internal/worker"
)

// channelDepth is the typical bounded-channel depth used throughout the
// pipeline: enough to hide latency without letting a stuck consumer pin
// more than its own working set.
const channelDepth = 64

// errPollInterval is how often the error-flag watcher checks globalerr
// before cancelling the shared context; this is the idiomatic Go stand-in
// for "every actor samples the flag at the top of its loop" when an actor
// is parked in a channel receive rather than actively looping.
const errPollInterval = 2 * time.Millisecond

// Run executes one full crawl-and-report pass over cfg.Paths and writes
// the canonical report to stdout. It returns a non-nil error only for
// setup failures (resolving a top-level argument's absolute path, starting
// the explain database) or a failed write of the report; a top-level
// argument that cannot be stat'ed and per-file failures are reported to
// stderr and reflected in the exit code via globalerr.
//
// tracker may be nil; when non-nil, every Walker and Worker updates it as
// they make progress, so a caller running a live display concurrently can
// poll tracker.Snapshot() while Run is still in flight.
func Run(ctx context.Context, cfg config.Config, stdout io.Writer, tracker *progress.Tracker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchGlobalErr(ctx, cancel)

	director, assign := walk.NewDirector(cfg.Jobs)
	workerCh := make(chan walk.FileBatch, channelDepth)
	collectorCh := make(chan aggregator.Msg, channelDepth)

	var explainer *explain.Explainer
	if cfg.Explain {
		var err error
		explainer, err = explain.New()
		if err != nil {
			return fmt.Errorf("pipeline: starting explain diagnostics: %w", err)
		}
		defer explainer.Close()
	}

	standalone, seedErr := seed(director, cfg.Paths)
	if seedErr != nil {
		return seedErr
	}

	walkers := make([]*walk.Walker, cfg.Jobs)
	for i := range walkers {
		walkers[i] = walk.NewWalker(i, director.Inbox(), assign[i], cfg.OneFileSystem, workerCh, tracker)
	}

	workers := make([]*worker.Worker, cfg.Jobs)
	for i := range workers {
		workers[i] = worker.New(i, collectorCh, cfg.Verbose, explainer, tracker)
	}

	collector := aggregator.New()
	statCh := make(chan aggregator.CompsizeStat, 1)

	go director.Run(ctx)

	walkersDone := make(chan struct{})
	go func() {
		defer close(walkersDone)
		runAll(len(walkers), func(i int) { walkers[i].Run(ctx) })
	}()

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		runAll(len(workers), func(i int) { workers[i].Run(ctx, workerCh, collectorCh) })
	}()

	go func() {
		statCh <- collector.Run(collectorCh)
	}()

	// Standalone file arguments bypass the Director/Walker entirely and go
	// straight to the Worker pool.
	if len(standalone) > 0 {
		select {
		case workerCh <- walk.FileBatch{Files: standalone}:
		case <-ctx.Done():
		}
	}

	<-walkersDone
	close(workerCh)
	<-workersDone
	close(collectorCh)
	stat := <-statCh

	if globalerr.IsSet() {
		return nil
	}

	wrote, err := report.Write(stdout, stat, cfg.Scale)
	if err != nil {
		return fmt.Errorf("pipeline: writing report: %w", err)
	}
	if !wrote {
		if stat.NFile == 0 {
			fmt.Fprintln(os.Stderr, "No Files.")
		} else {
			fmt.Fprintln(os.Stderr, "All empty or still-delalloced files.")
		}
		return nil
	}

	if explainer != nil {
		if err := explainer.Report(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "explain: %v\n", err)
		}
	}
	return nil
}

// seed stats every top-level path argument, bucketing directories into the
// Director's job queue by device id and collecting plain files into a
// standalone batch for direct delivery to the Worker pool.
func seed(director *walk.Director, paths []string) ([]walk.FileHandle, error) {
	var standalone []walk.FileHandle
	buckets := make(map[uint64][]walk.DirJob)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("pipeline: resolving %s: %w", p, err)
		}
		info, err := os.Lstat(abs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			globalerr.Set()
			continue
		}
		st, ok := info.Sys().(*syscall.Stat_t)
		if !ok {
			fmt.Fprintf(os.Stderr, "%s: cannot determine device id\n", p)
			globalerr.Set()
			continue
		}

		switch {
		case info.IsDir():
			buckets[uint64(st.Dev)] = append(buckets[uint64(st.Dev)], walk.DirJob{Path: abs, Arg: abs})
		case info.Mode().IsRegular():
			standalone = append(standalone, walk.NewStandaloneFileHandle(abs, st.Ino))
		default:
			fmt.Fprintf(os.Stderr, "%s: not a regular file or directory\n", p)
		}
	}

	for device, dirs := range buckets {
		director.Seed(device, dirs)
	}
	return standalone, nil
}

// runAll runs fn(0..n) concurrently and waits for all of them.
func runAll(n int, fn func(i int)) {
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			fn(i)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

// watchGlobalErr cancels ctx shortly after any actor sets the global error
// flag, giving every actor parked in a channel receive a way to observe
// the flag without polling it directly inside a blocking select.
func watchGlobalErr(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(errPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if globalerr.IsSet() {
				cancel()
				return
			}
		}
	}
}
