//go:build !unix

package walk

import (
	"fmt"
	"os"
	"path/filepath"
)

// openDir opens path as a directory on platforms without an openat-style
// relative-open primitive wired up; file opens below fall back to plain
// path joins instead of a directory-fd-relative open.
func openDir(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func openRelative(_ uintptr, name, fullPath string) (*os.File, error) {
	f, err := os.Open(filepath.Join(filepath.Dir(fullPath), name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fullPath, err)
	}
	return f, nil
}
