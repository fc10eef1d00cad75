package hostfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MountFS routes each path to the FS mounted at its longest matching
// directory prefix. Paths under no mount go to the fallback FS.
type MountFS struct {
	mu       sync.RWMutex
	fallback FS
	mounts   map[string]FS
}

// NewMountFS creates a mount table over fallback.
func NewMountFS(fallback FS) *MountFS {
	return &MountFS{
		fallback: fallback,
		mounts:   make(map[string]FS),
	}
}

// Mount attaches fsys at the absolute directory mountPath.
func (m *MountFS) Mount(mountPath string, fsys FS) error {
	if !filepath.IsAbs(mountPath) {
		return fmt.Errorf("mount path must be absolute: %q", mountPath)
	}
	mountPath = filepath.Clean(mountPath)
	if mountPath == string(filepath.Separator) {
		return fmt.Errorf("cannot mount over the host root")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mounts[mountPath]; ok {
		return fmt.Errorf("already mounted: %s", mountPath)
	}
	m.mounts[mountPath] = fsys
	return nil
}

// Unmount detaches the FS at mountPath. It reports whether one was mounted.
func (m *MountFS) Unmount(mountPath string) bool {
	mountPath = filepath.Clean(mountPath)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mounts[mountPath]
	delete(m.mounts, mountPath)
	return ok
}

// MountPoints returns the mounted paths in lexical order.
func (m *MountFS) MountPoints() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	points := make([]string, 0, len(m.mounts))
	for p := range m.mounts {
		points = append(points, p)
	}
	sort.Strings(points)
	return points
}

// resolve returns the FS responsible for path and its mount point ("" for
// the fallback).
func (m *MountFS) resolve(path string) (FS, string) {
	path = filepath.Clean(path)

	m.mu.RLock()
	defer m.mu.RUnlock()

	best := ""
	for mp := range m.mounts {
		if (path == mp || strings.HasPrefix(path, mp+string(filepath.Separator))) && len(mp) > len(best) {
			best = mp
		}
	}
	if best == "" {
		return m.fallback, ""
	}
	return m.mounts[best], best
}

func (m *MountFS) Stat(path string) (os.FileInfo, error) {
	fsys, _ := m.resolve(path)
	return fsys.Stat(path)
}

func (m *MountFS) ReadDir(path string) ([]os.FileInfo, error) {
	fsys, _ := m.resolve(path)
	return fsys.ReadDir(path)
}

func (m *MountFS) CreateFile(path string) error {
	fsys, _ := m.resolve(path)
	return fsys.CreateFile(path)
}

func (m *MountFS) Remove(path string) error {
	fsys, mp := m.resolve(path)
	if mp != "" && filepath.Clean(path) == mp {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return fsys.Remove(path)
}

func (m *MountFS) Rename(oldpath, newpath string) error {
	oldFS, oldMP := m.resolve(oldpath)
	_, newMP := m.resolve(newpath)
	if oldMP != newMP {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: ErrCrossMount}
	}
	return oldFS.Rename(oldpath, newpath)
}

func (m *MountFS) Mkdir(path string) error {
	fsys, _ := m.resolve(path)
	return fsys.Mkdir(path)
}
