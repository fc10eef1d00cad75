package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/retry"
)

func TestEnumerateOrderAndOmission(t *testing.T) {
	src := &StaticSource{
		Internal: "/data/internal/",
		External: []string{"/mnt/sd0", "", "/mnt/usb1"},
	}
	r := NewRegistry(src)

	roots := r.Enumerate()
	require.Len(t, roots, 3)
	assert.Equal(t, Root{Index: 0, Path: "/data/internal", Kind: KindInternal}, roots[0])
	assert.Equal(t, Root{Index: 1, Path: "/mnt/sd0", Kind: KindExternal}, roots[1])
	assert.Equal(t, Root{Index: 2, Path: "/mnt/usb1", Kind: KindExternal}, roots[2])
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, []string{"/data/internal", "/mnt/sd0", "/mnt/usb1"}, r.Roots())
}

func TestEnumerateWithoutInternal(t *testing.T) {
	r := NewRegistry(&StaticSource{External: []string{"/mnt/sd0"}})
	roots := r.Enumerate()
	require.Len(t, roots, 1)
	assert.Equal(t, 0, roots[0].Index)
	assert.Equal(t, KindExternal, roots[0].Kind)
}

func TestEnumerateIsNotCached(t *testing.T) {
	externals := []string{"/mnt/sd0"}
	r := NewRegistry(SourceFuncs{
		Internal: func() string { return "/data" },
		External: func() []string { return externals },
	})
	assert.Equal(t, 2, r.Count())

	externals = nil
	assert.Equal(t, 1, r.Count(), "removal must be visible on the next call")
}

func TestClassify(t *testing.T) {
	r := NewRegistry(&StaticSource{
		Internal: "/data/internal",
		External: []string{"/mnt/sd0"},
	})

	tests := []struct {
		path string
		want int
	}{
		{"/data/internal", 0},
		{"/data/internal/docs/a.txt", 0},
		{"/mnt/sd0/DCIM", 1},
		{"/etc/passwd", RootIndex},
		{"", RootIndex},
		{"/data/internal/../../etc", RootIndex},
		{"/etc/../mnt/sd0/DCIM", 1},
		{"/mnt/sd0/", 1},
	}
	for _, tt := range tests {
		if got := r.Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	r := NewRegistry(&StaticSource{Internal: "/data", External: []string{"/mnt/sd0"}})

	p, ok := r.BasePath(1)
	assert.True(t, ok)
	assert.Equal(t, "/mnt/sd0", p)

	for _, idx := range []int{RootIndex, -7, 2} {
		_, ok := r.BasePath(idx)
		assert.False(t, ok, "index %d", idx)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "external", KindExternal.String())
}

func TestMultiSource(t *testing.T) {
	m := MultiSource{
		&StaticSource{Internal: "/data", External: []string{"/mnt/a"}},
		&StaticSource{Internal: "/ignored", External: []string{"/mnt/b"}},
	}
	assert.Equal(t, "/data", m.InternalRoot())
	assert.Equal(t, []string{"/mnt/a", "/mnt/b"}, m.ExternalRoots())
	assert.Equal(t, "", MultiSource{}.InternalRoot())
}

func TestMediaSource(t *testing.T) {
	mem := hostfs.NewMem()
	fs := mem.Fs()
	require.NoError(t, fs.MkdirAll("/home/u/files", 0755))
	require.NoError(t, fs.MkdirAll("/media/u/CARD/Android/filenav", 0755))
	require.NoError(t, fs.MkdirAll("/media/u/STICK", 0755))
	require.NoError(t, fs.MkdirAll("/run/media/u/DISK/Android/filenav", 0755))
	f, err := fs.Create("/media/u/not-a-volume.txt")
	require.NoError(t, err)
	f.Close()

	src := &MediaSource{
		Internal:  "/home/u/files",
		MediaDirs: []string{"/media/u", "/run/media/u", "/nonexistent"},
		AppDir:    "Android/filenav",
		FS:        mem,
	}

	assert.Equal(t, "/home/u/files", src.InternalRoot())
	assert.Equal(t, []string{
		"/media/u/CARD/Android/filenav",
		"", // STICK has no app directory
		"/run/media/u/DISK/Android/filenav",
	}, src.ExternalRoots())

	r := NewRegistry(src)
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, 2, r.Classify("/run/media/u/DISK/Android/filenav/x"))

	src.Internal = "/home/u/gone"
	assert.Equal(t, "", src.InternalRoot())
}

func TestIsMountPointMissingPath(t *testing.T) {
	assert.False(t, isMountPoint("/definitely/not/here"))
}

type fakeLister struct {
	rows  []LocationRow
	errs  []error
	calls int
}

func (f *fakeLister) ListEnabled(context.Context) ([]LocationRow, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.rows, nil
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
}

func TestLocationSource(t *testing.T) {
	mem := hostfs.NewMem()
	require.NoError(t, mem.Fs().MkdirAll("/srv/archive", 0755))

	lister := &fakeLister{
		rows: []LocationRow{
			{ID: 1, Name: "archive", Path: "/srv/archive", Priority: 10, Enabled: true},
			{ID: 2, Name: "nas", Path: "/srv/nas", Priority: 5, Enabled: true},
		},
		errs: []error{errors.New("connection reset")},
	}
	src := &LocationSource{Internal: "/data", Store: lister, FS: mem, Retry: fastRetry()}

	assert.Equal(t, []string{"/srv/archive", ""}, src.ExternalRoots())
	assert.Equal(t, 2, lister.calls, "first failure should be retried")

	r := NewRegistry(src)
	assert.Equal(t, []string{"/data", "/srv/archive"}, r.Roots())
}

func TestLocationSourceQueryFailures(t *testing.T) {
	missing := &fakeLister{errs: []error{&pq.Error{Code: "42P01", Message: "relation does not exist"}}}
	src := &LocationSource{Internal: "/data", Store: missing, Retry: fastRetry()}
	assert.Empty(t, src.ExternalRoots())
	assert.Equal(t, 1, missing.calls, "missing table is not retried")

	down := errors.New("db down")
	broken := &fakeLister{errs: []error{down, down, down}}
	src = &LocationSource{Internal: "/data", Store: broken, Retry: fastRetry()}
	assert.Empty(t, src.ExternalRoots())
	assert.Equal(t, 3, broken.calls)
}
