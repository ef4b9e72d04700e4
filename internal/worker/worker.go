// Package worker implements the Worker: the actor that issues the blocking
// TREE_SEARCH_V2 ioctl against each incoming file and decodes its extent
// records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tarragon-labs/compsize/internal/aggregator"
	"github.com/tarragon-labs/compsize/internal/batch"
	"github.com/tarragon-labs/compsize/internal/btrfs"
	"github.com/tarragon-labs/compsize/internal/explain"
	"github.com/tarragon-labs/compsize/internal/globalerr"
	"github.com/tarragon-labs/compsize/internal/progress"
	"github.com/tarragon-labs/compsize/internal/walk"
)

// Worker owns a reusable ioctl argument buffer, a batcher to the
// Aggregator, and a local file counter.
type Worker struct {
	id        int
	searcher  *btrfs.Searcher
	out       *batch.Batcher[btrfs.ExtentInfo, aggregator.Msg]
	nfile     uint64
	verbose   bool
	explainer *explain.Explainer
	tracker   *progress.Tracker
}

// New creates a Worker that searches files and ships parsed extents (via
// its own batcher) to collectorCh. explainer and tracker may both be nil.
func New(id int, collectorCh chan<- aggregator.Msg, verbose bool, explainer *explain.Explainer, tracker *progress.Tracker) *Worker {
	return &Worker{
		id:       id,
		searcher: btrfs.NewSearcher(),
		out: batch.New(collectorCh, func(xs []btrfs.ExtentInfo) aggregator.Msg {
			return aggregator.Msg{Kind: aggregator.MsgExtents, Extents: xs}
		}),
		verbose:   verbose,
		explainer: explainer,
		tracker:   tracker,
	}
}

// Run consumes file batches from in until it is closed or ctx is
// cancelled, flushing its extent batcher and reporting its final file
// count to the Aggregator on the way out.
func (w *Worker) Run(ctx context.Context, in <-chan walk.FileBatch, collectorCh chan<- aggregator.Msg) {
	defer w.shutdown(ctx, collectorCh)

	for {
		select {
		case <-ctx.Done():
			return
		case fb, ok := <-in:
			if !ok {
				return
			}
			for _, fh := range fb.Files {
				if ctx.Err() != nil {
					return
				}
				w.handleFile(ctx, fh)
			}
		}
	}
}

func (w *Worker) handleFile(ctx context.Context, fh walk.FileHandle) {
	w.nfile++
	defer fh.Release()
	defer w.tracker.IncProcessed()

	if w.verbose {
		fmt.Fprintf(os.Stderr, "[worker %d] searching %s\n", w.id, fh.Path())
	}

	f, err := fh.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fh.Path(), err)
		globalerr.Set()
		w.tracker.IncErrors()
		return
	}
	defer f.Close()

	err = w.searcher.SearchFile(int(f.Fd()), fh.Ino(), func(info btrfs.ExtentInfo) error {
		if w.explainer != nil {
			w.explainer.Insert(fh.Arg(), info.Compression, info.Stat.Disk, info.Stat.Uncomp)
		}
		return w.out.Push(ctx, info)
	})
	if err == nil {
		return
	}

	if errors.Is(err, btrfs.ErrUnsupported) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fh.Path(), btrfs.ErrUnsupported)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fh.Path(), err)
	}
	globalerr.Set()
	w.tracker.IncErrors()
}

func (w *Worker) shutdown(ctx context.Context, collectorCh chan<- aggregator.Msg) {
	w.out.Close(ctx)
	select {
	case collectorCh <- aggregator.Msg{Kind: aggregator.MsgNFile, NFile: w.nfile}:
	case <-ctx.Done():
	}
}
