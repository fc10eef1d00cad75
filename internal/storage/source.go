package storage

import (
	"os"
	"path/filepath"

	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/logging"
)

// StaticSource reports fixed paths.
type StaticSource struct {
	Internal string
	External []string
}

func (s *StaticSource) InternalRoot() string { return s.Internal }

func (s *StaticSource) ExternalRoots() []string {
	return append([]string(nil), s.External...)
}

// SourceFuncs adapts two functions to a Source.
type SourceFuncs struct {
	Internal func() string
	External func() []string
}

func (s SourceFuncs) InternalRoot() string {
	if s.Internal == nil {
		return ""
	}
	return s.Internal()
}

func (s SourceFuncs) ExternalRoots() []string {
	if s.External == nil {
		return nil
	}
	return s.External()
}

// MultiSource takes the internal root of its first member and the
// externals of all members in order.
type MultiSource []Source

func (m MultiSource) InternalRoot() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].InternalRoot()
}

func (m MultiSource) ExternalRoots() []string {
	var out []string
	for _, s := range m {
		out = append(out, s.ExternalRoots()...)
	}
	return out
}

// MediaSource discovers external volumes as the children of media parent
// directories such as /media/$USER.
type MediaSource struct {
	Internal string
	// MediaDirs are scanned in order; each child directory is a volume.
	MediaDirs []string
	// AppDir, when set, is joined onto each volume path.
	AppDir string
	// RequireMount skips children that are not mount points.
	RequireMount bool
	// FS answers existence checks; nil means the OS.
	FS hostfs.FS
}

func (m *MediaSource) host() hostfs.FS {
	if m.FS == nil {
		return hostfs.NewOS()
	}
	return m.FS
}

func (m *MediaSource) InternalRoot() string {
	if m.Internal == "" || !hostfs.IsDir(m.host(), m.Internal) {
		return ""
	}
	return m.Internal
}

func (m *MediaSource) ExternalRoots() []string {
	host := m.host()
	var out []string
	for _, dir := range m.MediaDirs {
		infos, err := host.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warn("media directory unreadable", logging.Path(dir), logging.Err(err))
			}
			continue
		}
		for _, info := range infos {
			if !info.IsDir() {
				continue
			}
			volume := filepath.Join(dir, info.Name())
			if m.RequireMount && !isMountPoint(volume) {
				continue
			}
			root := volume
			if m.AppDir != "" {
				root = filepath.Join(volume, m.AppDir)
			}
			if !hostfs.IsDir(host, root) {
				// Known volume without a usable directory.
				out = append(out, "")
				continue
			}
			out = append(out, root)
		}
	}
	return out
}
