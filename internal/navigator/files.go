package navigator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/metrics"
	"github.com/fruitsalade/filenav/internal/storage"
)

// FilePath resolves dir and name to a full path. An empty dir means the
// current directory; an empty name means the directory itself.
func (c *Cursor) FilePath(dir, name string) (string, error) {
	if dir == "" {
		if c.IsAtRoot() {
			return "", fmt.Errorf("resolve %q: %w", name, ErrAtRoot)
		}
		dir = c.dir
	}
	if !filepath.IsAbs(dir) {
		return "", fmt.Errorf("resolve %q: %w", dir, ErrInvalidArgument)
	}
	if name == "" {
		return filepath.Clean(dir), nil
	}
	if !validName(name) {
		return "", fmt.Errorf("resolve %q: %w", name, ErrInvalidArgument)
	}
	return filepath.Join(dir, name), nil
}

// CreateFile creates an empty file called name in the current directory.
// It fails if the entry already exists.
func (c *Cursor) CreateFile(name string) (string, error) {
	path, err := c.childPath("create", name)
	if err != nil {
		return "", err
	}
	if err := c.fs.CreateFile(path); err != nil {
		return "", c.hostResult("create", path, err)
	}
	return path, c.hostResult("create", path, nil)
}

// Mkdir creates a directory called name in the current directory.
func (c *Cursor) Mkdir(name string) (string, error) {
	path, err := c.childPath("mkdir", name)
	if err != nil {
		return "", err
	}
	if err := c.fs.Mkdir(path); err != nil {
		return "", c.hostResult("mkdir", path, err)
	}
	return path, c.hostResult("mkdir", path, nil)
}

// Delete removes the file or empty directory dir/name, resolved as by
// FilePath. Storage base directories and the current directory or its
// ancestors cannot be deleted.
func (c *Cursor) Delete(dir, name string) error {
	c.MediaCheck()
	path, err := c.FilePath(dir, name)
	if err != nil {
		return c.hostResult("delete", dir, err)
	}
	if err := c.checkMutable("delete", path); err != nil {
		return c.hostResult("delete", path, err)
	}
	if _, err := c.fs.Stat(path); err != nil {
		return c.hostResult("delete", path, hostError("delete", path, err))
	}
	return c.hostResult("delete", path, c.fs.Remove(path))
}

// Rename renames the entry at path to newName within the same directory and
// returns the new path.
func (c *Cursor) Rename(path, newName string) (string, error) {
	c.MediaCheck()
	if !filepath.IsAbs(path) || !validName(newName) {
		return "", c.hostResult("rename", path,
			fmt.Errorf("rename %q to %q: %w", path, newName, ErrInvalidArgument))
	}
	path = filepath.Clean(path)
	if err := c.checkMutable("rename", path); err != nil {
		return "", c.hostResult("rename", path, err)
	}
	if _, err := c.fs.Stat(path); err != nil {
		return "", c.hostResult("rename", path, hostError("rename", path, err))
	}
	dest := filepath.Join(filepath.Dir(path), newName)
	if dest == path {
		return dest, c.hostResult("rename", path, nil)
	}
	if _, err := c.fs.Stat(dest); err == nil {
		return "", c.hostResult("rename", path,
			fmt.Errorf("rename %s: %s exists: %w", path, dest, ErrOperationFailed))
	}
	if err := c.fs.Rename(path, dest); err != nil {
		return "", c.hostResult("rename", path, err)
	}
	logging.Debug("renamed", logging.Path(path), logging.String("to", dest))
	return dest, c.hostResult("rename", path, nil)
}

func (c *Cursor) childPath(op, name string) (string, error) {
	c.MediaCheck()
	if c.IsAtRoot() {
		return "", c.hostResult(op, name, fmt.Errorf("%s %q: %w", op, name, ErrAtRoot))
	}
	if !validName(name) {
		return "", c.hostResult(op, name, fmt.Errorf("%s %q: %w", op, name, ErrInvalidArgument))
	}
	return filepath.Join(c.dir, name), nil
}

// checkMutable rejects paths outside every root, root base directories,
// and the directory the cursor is in or below.
func (c *Cursor) checkMutable(op, path string) error {
	if c.reg.Classify(path) == storage.RootIndex {
		return fmt.Errorf("%s %s: outside every storage root: %w", op, path, ErrStorageUnavailable)
	}
	if c.isBase(path) {
		return fmt.Errorf("%s %s: storage base directory: %w", op, path, ErrInvalidArgument)
	}
	if !c.IsAtRoot() && (c.dir == path || strings.HasPrefix(c.dir, path+string(filepath.Separator))) {
		return fmt.Errorf("%s %s: contains current directory: %w", op, path, ErrInvalidArgument)
	}
	return nil
}

// hostResult classifies err, records the outcome and logs failures.
func (c *Cursor) hostResult(op, path string, err error) error {
	if err == nil {
		metrics.RecordHostOperation(op, true)
		return nil
	}
	if !isClassified(err) {
		err = hostError(op, path, err)
	}
	metrics.RecordHostOperation(op, false)
	logging.Warn("file operation failed",
		logging.String("op", op),
		logging.Path(path),
		logging.Err(err))
	return err
}
