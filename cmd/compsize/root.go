package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tarragon-labs/compsize/internal/config"
	"github.com/tarragon-labs/compsize/internal/globalerr"
	"github.com/tarragon-labs/compsize/internal/pipeline"
	"github.com/tarragon-labs/compsize/internal/progress"
	"github.com/tarragon-labs/compsize/internal/progressui"
)

func runRoot(cmd *cobra.Command, args []string) error {
	return run(args, flagExplain)
}

// run resolves flags into a Config, runs the pipeline, and exits 1 if any
// component set the global error flag along the way. explain forces the
// per-argument breakdown on regardless of how it was requested (the
// root command's --explain flag or the explain subcommand).
func run(paths []string, explain bool) error {
	// Clean each argument before it becomes both a walk root and (in
	// --explain mode) the tag every extent under it is grouped by; an
	// un-Cleaned "./foo/" and "foo" would otherwise walk identically but
	// report as distinct arguments.
	normalized := make([]string, len(paths))
	for i, p := range paths {
		if p == "" {
			continue
		}
		normalized[i] = filepath.Clean(p)
	}

	cfg, err := config.New(normalized, flagOneFileSystem, flagBytes, flagVerbose, flagProgressUI, explain, flagJobs)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var tracker *progress.Tracker
	var uiDone chan struct{}
	stopUI := func() {}
	if cfg.ProgressUI {
		tracker = progress.New()
		uiCtx, uiCancel := context.WithCancel(context.Background())
		uiDone = make(chan struct{})
		go func() {
			defer close(uiDone)
			if err := progressui.Run(uiCtx, tracker); err != nil {
				fmt.Fprintf(os.Stderr, "progress-ui: %v\n", err)
			}
		}()
		stopUI = func() {
			uiCancel()
			<-uiDone
		}
	}

	// While the live display is up, hold the report back and print it only
	// once the display has shut down.
	var stdout io.Writer = os.Stdout
	var held bytes.Buffer
	if cfg.ProgressUI {
		stdout = &held
	}
	err = pipeline.Run(ctx, cfg, stdout, tracker)
	stopUI()
	os.Stdout.Write(held.Bytes())
	if err != nil {
		return err
	}

	if globalerr.IsSet() {
		os.Exit(1)
	}
	return nil
}
