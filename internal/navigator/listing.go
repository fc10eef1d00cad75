package navigator

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fruitsalade/filenav/internal/metrics"
)

// SortOrder selects how List orders entries.
type SortOrder int

const (
	SortNone SortOrder = iota // host order
	SortAscending
	SortDescending
)

// Kind is the type of a directory entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

func (k Kind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Entry is one listed file or directory.
type Entry struct {
	Name string
	Path string
	Kind Kind
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// List returns the children of the current directory in the given order.
// At the virtual root it returns the storage roots' base directories in
// enumeration order instead.
func (c *Cursor) List(order SortOrder) ([]Entry, error) {
	start := time.Now()
	c.MediaCheck()

	if c.IsAtRoot() {
		roots := c.reg.Enumerate()
		entries := make([]Entry, len(roots))
		for i, root := range roots {
			entries[i] = Entry{Name: filepath.Base(root.Path), Path: root.Path, Kind: KindDir}
		}
		metrics.RecordList("root", time.Since(start))
		return entries, nil
	}

	infos, err := c.fs.ReadDir(c.dir)
	if err != nil {
		return nil, hostError("list", c.dir, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		kind := KindFile
		if info.IsDir() {
			kind = KindDir
		}
		entries = append(entries, Entry{
			Name: info.Name(),
			Path: filepath.Join(c.dir, info.Name()),
			Kind: kind,
		})
	}
	Sort(entries, order)

	metrics.RecordList("dir", time.Since(start))
	return entries, nil
}

// Sort orders entries by case-insensitive name. SortDescending reverses the
// ascending result, so entries with equal folded names keep their ascending
// relative order mirrored rather than being compared again.
func Sort(entries []Entry, order SortOrder) {
	if order != SortAscending && order != SortDescending {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	if order == SortDescending {
		slices.Reverse(entries)
	}
}
