//go:build unix

// Package walk implements the Director/Walker half of the pipeline: the
// work-stealing concurrent directory crawl that turns path arguments into
// a stream of FileHandles for the Worker pool.
package walk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openDir opens path as a directory file descriptor, usable both for
// listing entries and as the base fd for openat-relative file opens.
func openDir(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

// openRelative opens name relative to the already-open directory fd dirFd,
// never following a trailing symlink.
func openRelative(dirFd uintptr, name, fullPath string) (*os.File, error) {
	fd, err := unix.Openat(int(dirFd), name, unix.O_RDONLY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fullPath, err)
	}
	return os.NewFile(uintptr(fd), fullPath), nil
}
