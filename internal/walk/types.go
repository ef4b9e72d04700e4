package walk

import (
	"os"
	"path/filepath"
	"sync/atomic"
)

// DirHandle is an open directory shared by every FileHandle derived from
// its listing. The descriptor is closed only when the last reference is
// released; Go has no destructor to do this implicitly, so every holder
// must call Release exactly once.
type DirHandle struct {
	file *os.File
	path string
	refs atomic.Int32
}

// OpenDir opens path and returns a DirHandle with one reference already
// held by the caller (the Walker that is about to enumerate it).
func OpenDir(path string) (*DirHandle, error) {
	f, err := openDir(path)
	if err != nil {
		return nil, err
	}
	d := &DirHandle{file: f, path: path}
	d.refs.Store(1)
	return d, nil
}

// Retain adds a reference, returning d for chaining into a FileHandle.
func (d *DirHandle) Retain() *DirHandle {
	d.refs.Add(1)
	return d
}

// Release drops a reference, closing the underlying descriptor once the
// last holder has released it.
func (d *DirHandle) Release() {
	if d.refs.Add(-1) == 0 {
		d.file.Close()
	}
}

// Fd returns the raw descriptor, valid for openat-relative opens as long
// as the caller still holds a reference.
func (d *DirHandle) Fd() uintptr {
	return d.file.Fd()
}

// ReadEntries lists the directory's children.
func (d *DirHandle) ReadEntries() ([]os.DirEntry, error) {
	return d.file.ReadDir(-1)
}

// FileHandle is an opened regular file: the directory handle it shares
// ownership of, its name within that directory, its logical path for
// diagnostics, and the inode number the ioctl search key needs.
type FileHandle struct {
	dir  *DirHandle // nil for a file passed directly as a CLI argument
	name string
	path string
	ino  uint64
	arg  string // the top-level CLI argument this file descends from
}

// NewFileHandle builds a handle sharing dir's open descriptor. The caller
// must already hold a reference on dir on dir's behalf of this handle
// (typically via dir.Retain()).
func NewFileHandle(dir *DirHandle, name, path string, ino uint64, arg string) FileHandle {
	return FileHandle{dir: dir, name: name, path: path, ino: ino, arg: arg}
}

// NewStandaloneFileHandle builds a handle for a file passed directly as a
// CLI argument, with no shared parent directory handle.
func NewStandaloneFileHandle(path string, ino uint64) FileHandle {
	return FileHandle{path: path, ino: ino, arg: path}
}

// Path returns the file's logical path, for diagnostics.
func (f FileHandle) Path() string {
	return f.path
}

// Arg returns the top-level CLI argument this file was reached from,
// used only by the optional explain breakdown.
func (f FileHandle) Arg() string {
	return f.arg
}

// Ino returns the inode number used as the ioctl search key's objectid.
func (f FileHandle) Ino() uint64 {
	return f.ino
}

// Open acquires an *os.File for the handle, using the shared directory
// descriptor when one is present.
func (f FileHandle) Open() (*os.File, error) {
	if f.dir == nil {
		return os.OpenFile(f.path, os.O_RDONLY, 0)
	}
	return openRelative(f.dir.Fd(), f.name, f.path)
}

// Release drops this handle's reference on its parent directory, if any.
// The Worker calls this exactly once when it is done with the file.
func (f FileHandle) Release() {
	if f.dir != nil {
		f.dir.Release()
	}
}

// DirJob is one directory queued for a Walker to enumerate. Handle is
// non-nil only when the Walker that discovered it already had to open it
// (a fresh cross-device directory), letting the assignee skip a redundant
// open.
type DirJob struct {
	Path   string
	Handle *DirHandle
	Arg    string // the top-level CLI argument this directory descends from
}

// JobChunk is a batch of same-device directories handed from the Director
// to a Walker, or pushed back the other way on overflow.
type JobChunk struct {
	Device uint64
	Dirs   []DirJob
}

func join(dir, name string) string {
	return filepath.Join(dir, name)
}
