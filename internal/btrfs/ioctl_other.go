//go:build !linux

package btrfs

import "errors"

// ErrUnsupported is returned for every call on platforms that cannot issue
// TREE_SEARCH_V2 at all.
var ErrUnsupported = errors.New("btrfs: TREE_SEARCH_V2 is only available on Linux")

// Searcher is a no-op stand-in so the rest of the pipeline compiles
// uniformly across platforms; every call fails with ErrUnsupported, which
// the Worker reports as a clean per-file diagnostic rather than a panic.
type Searcher struct{}

// NewSearcher returns a Searcher that always reports the platform as
// unsupported.
func NewSearcher() *Searcher {
	return &Searcher{}
}

// SearchFile always fails on non-Linux platforms.
func (s *Searcher) SearchFile(fd int, ino uint64, yield func(ExtentInfo) error) error {
	return ErrUnsupported
}
