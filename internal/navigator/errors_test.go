package navigator

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/fruitsalade/filenav/internal/hostfs"
)

func TestHostError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing", &fs.PathError{Op: "stat", Path: "/x", Err: fs.ErrNotExist}, ErrNotFound},
		{"not dir", &fs.PathError{Op: "mkdir", Path: "/x", Err: syscall.ENOTDIR}, ErrNotADirectory},
		{"exists", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrExist}, ErrOperationFailed},
		{"permission", os.ErrPermission, ErrOperationFailed},
		{"not empty", &fs.PathError{Op: "remove", Path: "/x", Err: syscall.ENOTEMPTY}, ErrOperationFailed},
		{"cross mount", &os.LinkError{Op: "rename", Old: "/a", New: "/b", Err: hostfs.ErrCrossMount}, ErrOperationFailed},
		{"unsupported", errors.ErrUnsupported, ErrOperationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hostError("op", "/x", tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("hostError(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if !isClassified(got) {
				t.Fatalf("hostError(%v) not classified", tt.err)
			}
		})
	}

	if hostError("op", "/x", nil) != nil {
		t.Fatal("nil error should stay nil")
	}
	other := errors.New("disk on fire")
	got := hostError("op", "/x", other)
	if !errors.Is(got, other) || isClassified(got) {
		t.Fatalf("unknown error should be wrapped unclassified, got %v", got)
	}
}
