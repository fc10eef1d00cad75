// Package navigator tracks the current storage root and directory of a
// browsing session over the storage roots a Registry enumerates, with a
// virtual root above all of them.
//
// A Cursor is not safe for concurrent use. Media events arriving on other
// goroutines should be handed to the cursor's owner, which then calls
// HandleMediaEvent.
package navigator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/metrics"
	"github.com/fruitsalade/filenav/internal/storage"
)

// MediaListener receives the new root count when media changes.
type MediaListener func(count int)

// Cursor is the navigation state: either the virtual root, or a directory
// inside one storage root.
type Cursor struct {
	reg *storage.Registry
	fs  hostfs.FS

	storage int
	dir     string // "" iff storage == storage.RootIndex

	listener MediaListener
}

// New creates a cursor at the virtual root.
func New(reg *storage.Registry, fsys hostfs.FS) *Cursor {
	return &Cursor{
		reg:     reg,
		fs:      fsys,
		storage: storage.RootIndex,
	}
}

// NewAt creates a cursor at the top directory of storage index.
func NewAt(reg *storage.Registry, fsys hostfs.FS, index int) (*Cursor, error) {
	c := New(reg, fsys)
	if err := c.Top(index); err != nil {
		return nil, err
	}
	return c, nil
}

// Storage returns the selected storage index, or storage.RootIndex.
func (c *Cursor) Storage() int { return c.storage }

// Dir returns the current directory; ok is false at the virtual root.
func (c *Cursor) Dir() (dir string, ok bool) {
	return c.dir, c.storage != storage.RootIndex
}

// IsAtRoot reports whether the cursor is at the virtual root.
func (c *Cursor) IsAtRoot() bool {
	return c.storage == storage.RootIndex
}

// IsAtTop reports whether the cursor is at the base directory of its storage.
func (c *Cursor) IsAtTop() bool {
	if c.IsAtRoot() {
		return false
	}
	base, ok := c.reg.BasePath(c.storage)
	return ok && base == c.dir
}

// Roots returns the current storage roots.
func (c *Cursor) Roots() []storage.Root {
	return c.reg.Enumerate()
}

func (c *Cursor) set(index int, dir string) {
	c.storage = index
	c.dir = dir
	logging.Debug("directory changed", logging.Storage(index), logging.Path(dir))
}

func (c *Cursor) accept(op string) {
	metrics.RecordNavigation(op, true)
}

func (c *Cursor) reject(op string, err error) error {
	metrics.RecordNavigation(op, false)
	logging.Warn("navigation rejected",
		logging.String("op", op),
		logging.Storage(c.storage),
		logging.Path(c.dir),
		logging.Err(err))
	return err
}

// ToRoot moves to the virtual root. It always succeeds.
func (c *Cursor) ToRoot() {
	c.set(storage.RootIndex, "")
	c.accept("root")
}

// Top moves to the base directory of storage index. storage.RootIndex is the
// same as ToRoot. An index beyond the current roots is rejected with
// ErrStorageUnavailable: the removable media is missing.
func (c *Cursor) Top(index int) error {
	count := c.MediaCheck()
	if index == storage.RootIndex {
		c.ToRoot()
		return nil
	}
	if index < 0 || index >= count {
		return c.reject("top", fmt.Errorf("top %d of %d roots: %w", index, count, ErrStorageUnavailable))
	}
	base, ok := c.reg.BasePath(index)
	if !ok {
		return c.reject("top", fmt.Errorf("top %d: %w", index, ErrStorageUnavailable))
	}
	if err := c.checkDir("top", base); err != nil {
		return c.reject("top", err)
	}
	c.set(index, base)
	c.accept("top")
	return nil
}

// Descend moves into the child directory name of the current directory.
func (c *Cursor) Descend(name string) error {
	c.MediaCheck()
	if c.IsAtRoot() {
		return c.reject("descend", fmt.Errorf("descend %q: %w", name, ErrAtRoot))
	}
	if !validName(name) {
		return c.reject("descend", fmt.Errorf("descend %q: %w", name, ErrInvalidArgument))
	}
	return c.moveTo("descend", filepath.Join(c.dir, name))
}

// DescendTo moves to an absolute directory inside one of the storage roots.
// An empty path is the same as ToRoot.
func (c *Cursor) DescendTo(path string) error {
	if path == "" {
		c.ToRoot()
		return nil
	}
	c.MediaCheck()
	if !filepath.IsAbs(path) {
		return c.reject("descend_to", fmt.Errorf("descend to %q: %w", path, ErrInvalidArgument))
	}
	return c.moveTo("descend_to", filepath.Clean(path))
}

// Up moves to the parent directory, or to the virtual root from a top
// directory. At the virtual root it returns ErrAtRoot.
func (c *Cursor) Up() error {
	c.MediaCheck()
	if c.IsAtRoot() {
		return c.reject("up", fmt.Errorf("up: already at root: %w", ErrAtRoot))
	}
	parent := filepath.Dir(c.dir)
	if c.IsAtTop() || c.isBase(c.dir) || c.reg.Classify(parent) == storage.RootIndex {
		c.ToRoot()
		return nil
	}
	return c.moveTo("up", parent)
}

// isBase reports whether dir is the base directory of any root. A prefix
// sibling such as /media/SD1 classifies under /media/SD, so the selected
// index alone does not tell.
func (c *Cursor) isBase(dir string) bool {
	for _, root := range c.reg.Enumerate() {
		if root.Path == dir {
			return true
		}
	}
	return false
}

// Swap toggles between the internal root and the first external root.
func (c *Cursor) Swap() error {
	target := storage.InternalIndex
	if c.storage == storage.InternalIndex {
		target = storage.InternalIndex + 1
	}
	return c.Top(target)
}

// moveTo validates path as a directory owned by a root and moves there.
func (c *Cursor) moveTo(op, path string) error {
	if err := c.checkDir(op, path); err != nil {
		return c.reject(op, err)
	}
	index := c.reg.Classify(path)
	if index == storage.RootIndex {
		return c.reject(op, fmt.Errorf("%s %s: outside every storage root: %w", op, path, ErrStorageUnavailable))
	}
	c.set(index, path)
	c.accept(op)
	return nil
}

func (c *Cursor) checkDir(op, path string) error {
	info, err := c.fs.Stat(path)
	if err != nil {
		return hostError(op, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s %s: %w", op, path, ErrNotADirectory)
	}
	return nil
}

// SetMediaListener registers the callback for media changes, replacing any
// previous one.
func (c *Cursor) SetMediaListener(fn MediaListener) {
	c.listener = fn
}

// RemoveMediaListener deregisters the media callback.
func (c *Cursor) RemoveMediaListener() {
	c.listener = nil
}

// MediaCheck re-enumerates the roots. When the selected root has vanished
// the cursor moves to the virtual root and the listener is told the new
// count. It returns the root count.
func (c *Cursor) MediaCheck() int {
	return c.mediaCheck(true)
}

// HandleMediaEvent is called when the host reports a mount change. The
// listener is notified exactly once with the new count.
func (c *Cursor) HandleMediaEvent() int {
	count := c.mediaCheck(false)
	c.notify(count)
	return count
}

func (c *Cursor) mediaCheck(notify bool) int {
	roots := c.reg.Enumerate()
	count := len(roots)
	if c.IsAtRoot() {
		return count
	}
	// A shorter list, or a different volume now at this index.
	if c.storage < count && strings.HasPrefix(c.dir, roots[c.storage].Path) {
		return count
	}

	logging.Warn("media removed",
		logging.Storage(c.storage),
		logging.Path(c.dir),
		logging.Int("count", count))
	c.set(storage.RootIndex, "")
	if notify {
		c.notify(count)
	}
	return count
}

func (c *Cursor) notify(count int) {
	if c.listener == nil {
		return
	}
	metrics.RecordMediaChange()
	c.listener(count)
}

// PathOwner returns the storage index owning path, or storage.RootIndex.
func (c *Cursor) PathOwner(path string) int {
	return c.reg.Classify(path)
}

// RelativeName strips the owning root's base path from path. ok is false
// when no root owns path.
func (c *Cursor) RelativeName(path string) (name string, ok bool) {
	if path == "" {
		return "", false
	}
	path = filepath.Clean(path)
	base, ok := c.reg.BasePath(c.reg.Classify(path))
	if !ok || !strings.HasPrefix(path, base) {
		return "", false
	}
	name = strings.TrimPrefix(path, base)
	return strings.TrimPrefix(name, string(filepath.Separator)), true
}

// RelativeDir returns the directory part of RelativeName. ok is false when
// the relative name has no directory component.
func (c *Cursor) RelativeDir(path string) (dir string, ok bool) {
	name, ok := c.RelativeName(path)
	if !ok {
		return "", false
	}
	i := strings.LastIndexByte(name, filepath.Separator)
	if i == -1 {
		return "", false
	}
	return name[:i], true
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsRune(name, '/') && !strings.ContainsRune(name, filepath.Separator)
}
