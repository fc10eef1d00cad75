// Package hostfs defines the host filesystem the navigator delegates to and
// provides afero-backed and mount-table implementations.
package hostfs

import (
	"errors"
	"os"
)

// ErrCrossMount is returned when a rename spans two mounted filesystems.
var ErrCrossMount = errors.New("rename across mounts")

// FS is the set of synchronous host operations the navigator needs.
// Paths are absolute. Errors wrap fs.ErrNotExist, fs.ErrExist or
// fs.ErrPermission where they apply.
type FS interface {
	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)

	// ReadDir returns the direct children of a directory.
	ReadDir(path string) ([]os.FileInfo, error)

	// CreateFile creates an empty regular file. It fails if path exists.
	CreateFile(path string) error

	// Remove deletes a file or an empty directory.
	Remove(path string) error

	// Rename moves oldpath to newpath.
	Rename(oldpath, newpath string) error

	// Mkdir creates a single directory.
	Mkdir(path string) error
}

// IsDir reports whether path exists and is a directory.
func IsDir(fsys FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}
