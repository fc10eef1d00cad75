//go:build unix

package storage

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// isMountPoint reports whether path lives on a different device than its
// parent directory.
func isMountPoint(path string) bool {
	var st, parent unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false
	}
	if err := unix.Stat(filepath.Dir(path), &parent); err != nil {
		return false
	}
	return st.Dev != parent.Dev
}
