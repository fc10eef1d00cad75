//go:build !unix

package storage

// isMountPoint cannot tell mounts apart here; every volume directory counts.
func isMountPoint(string) bool {
	return true
}
