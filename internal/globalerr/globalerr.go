// Package globalerr holds the single process-wide error flag shared across
// the pipeline's actors. It is the only error signal passed between actors
// outside of their channels.
package globalerr

import "sync/atomic"

var flag atomic.Bool

// Set marks the run as failed. Safe to call from any goroutine, any number
// of times; the flag only ever moves from false to true.
func Set() {
	flag.Store(true)
}

// IsSet reports whether any component has flagged a fatal error so far.
func IsSet() bool {
	return flag.Load()
}

// Reset clears the flag. Only tests should call this; a real run never
// needs it because the flag lives for the process lifetime.
func Reset() {
	flag.Store(false)
}
