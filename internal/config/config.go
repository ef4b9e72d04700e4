// Package config resolves CLI flags into the single immutable Config value
// the pipeline is built from. Nothing under internal/pipeline or below
// re-reads flags; everything they need is threaded through this struct.
package config

import (
	"fmt"
	"runtime"

	"github.com/tarragon-labs/compsize/internal/scale"
)

// Config is the process-wide immutable record produced once from argument
// parsing. It never mutates after New returns.
type Config struct {
	Paths []string

	OneFileSystem bool
	Jobs          int
	Scale         scale.Scale
	Verbose       bool

	// ProgressUI turns on the live bubbletea progress display while the
	// crawl runs; purely a presentation layer, it never changes the
	// computed statistics.
	ProgressUI bool

	// Explain additionally tags every extent with its top-level argument
	// and prints a secondary per-argument breakdown after the canonical
	// report.
	Explain bool
}

// New validates and assembles a Config from already-parsed flag values. It
// is the sole place CLI-shaped input errors are raised; everything below
// the pipeline boundary treats Config as already correct.
func New(paths []string, oneFS, bytesScale, verbose, progressUI, explain bool, jobs int) (Config, error) {
	if len(paths) == 0 {
		return Config{}, fmt.Errorf("no paths given")
	}
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}
	if jobs < 1 {
		return Config{}, fmt.Errorf("--jobs must be at least 1, got %d", jobs)
	}
	sc := scale.Human
	if bytesScale {
		sc = scale.Bytes
	}
	return Config{
		Paths:         paths,
		OneFileSystem: oneFS,
		Jobs:          jobs,
		Scale:         sc,
		Verbose:       verbose,
		ProgressUI:    progressUI,
		Explain:       explain,
	}, nil
}
