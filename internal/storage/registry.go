// Package storage enumerates the storage roots the navigator exposes and
// classifies absolute paths against them.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/metrics"
)

// RootIndex is the index of the virtual root above all storage roots.
const RootIndex = -1

// Index of the internal root when the source reports one.
const InternalIndex = 0

// Kind tells internal and external roots apart.
type Kind int

const (
	KindInternal Kind = iota
	KindExternal
)

func (k Kind) String() string {
	if k == KindInternal {
		return "internal"
	}
	return "external"
}

// Root is one enumerated storage root.
type Root struct {
	Index int
	Path  string
	Kind  Kind
}

// Source reports the host's storage roots. Implementations are queried on
// every enumeration and may return different externals each time.
type Source interface {
	// InternalRoot returns the internal root path, or "" when unavailable.
	InternalRoot() string

	// ExternalRoots returns external root paths in host order. An empty
	// entry marks a volume the host knows about but cannot serve.
	ExternalRoots() []string
}

// Registry enumerates roots from a Source. It keeps no state between calls.
type Registry struct {
	src Source
}

// NewRegistry creates a Registry over src.
func NewRegistry(src Source) *Registry {
	return &Registry{src: src}
}

// Enumerate returns the available roots: internal first, then externals in
// source order. Unavailable roots are omitted.
func (r *Registry) Enumerate() []Root {
	var roots []Root
	if p := r.src.InternalRoot(); p != "" {
		roots = append(roots, Root{Index: len(roots), Path: filepath.Clean(p), Kind: KindInternal})
	}
	for _, p := range r.src.ExternalRoots() {
		if p == "" {
			continue
		}
		roots = append(roots, Root{Index: len(roots), Path: filepath.Clean(p), Kind: KindExternal})
	}

	metrics.SetStorageRoots(len(roots))
	logging.Debug("storage roots enumerated", logging.Int("count", len(roots)))
	return roots
}

// Count returns the number of available roots.
func (r *Registry) Count() int {
	return len(r.Enumerate())
}

// Roots returns the base paths of the available roots.
func (r *Registry) Roots() []string {
	roots := r.Enumerate()
	paths := make([]string, len(roots))
	for i, root := range roots {
		paths[i] = root.Path
	}
	return paths
}

// Classify returns the index of the first root whose base path is a string
// prefix of the cleaned path, or RootIndex.
func (r *Registry) Classify(path string) int {
	if path == "" {
		return RootIndex
	}
	path = filepath.Clean(path)
	for _, root := range r.Enumerate() {
		if strings.HasPrefix(path, root.Path) {
			return root.Index
		}
	}
	return RootIndex
}

// BasePath returns the base path of the root at index.
func (r *Registry) BasePath(index int) (string, bool) {
	if index < 0 {
		return "", false
	}
	roots := r.Enumerate()
	if index >= len(roots) {
		logging.Debug("storage not available", logging.Storage(index))
		return "", false
	}
	return roots[index].Path, true
}
