package navigator

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/fruitsalade/filenav/internal/hostfs"
)

// Rejection kinds. Operations wrap one of these; test with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrNotADirectory      = errors.New("not a directory")
	ErrStorageUnavailable = errors.New("storage not available")
	ErrOperationFailed    = errors.New("operation failed")
	ErrAtRoot             = errors.New("at virtual root")
)

// hostError maps a host filesystem error onto the rejection kinds. Errors
// that fit none are returned wrapped but unclassified.
func hostError(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s %s: %w", op, path, ErrNotADirectory)
	case errors.Is(err, fs.ErrExist),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, syscall.ENOTEMPTY),
		errors.Is(err, hostfs.ErrCrossMount),
		errors.Is(err, errors.ErrUnsupported):
		return fmt.Errorf("%s %s: %w: %v", op, path, ErrOperationFailed, err)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

func isClassified(err error) bool {
	for _, kind := range []error{
		ErrInvalidArgument, ErrNotFound, ErrNotADirectory,
		ErrStorageUnavailable, ErrOperationFailed, ErrAtRoot,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
