package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruitsalade/filenav/internal/hostfs"
	"github.com/fruitsalade/filenav/internal/navigator"
	"github.com/fruitsalade/filenav/internal/storage"
)

type fakeLocations struct {
	rows    []storage.LocationRow
	enabled map[int]bool
	deleted []int
}

func (f *fakeLocations) ListEnabled(context.Context) ([]storage.LocationRow, error) {
	return f.rows, nil
}

func (f *fakeLocations) Create(_ context.Context, loc *storage.LocationRow) error {
	loc.ID = len(f.rows) + 1
	f.rows = append(f.rows, *loc)
	return nil
}

func (f *fakeLocations) SetEnabled(_ context.Context, id int, enabled bool) error {
	if id > len(f.rows) {
		return errors.New("storage location not found")
	}
	f.enabled[id] = enabled
	return nil
}

func (f *fakeLocations) Delete(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	mem := hostfs.NewMem()
	for _, dir := range []string{"/data/internal/docs", "/mnt/sd0"} {
		require.NoError(t, mem.Fs().MkdirAll(dir, 0755))
	}
	for _, file := range []string{"c.txt", "a.txt", "B.txt"} {
		require.NoError(t, mem.CreateFile("/data/internal/docs/"+file))
	}
	reg := storage.NewRegistry(&storage.StaticSource{
		Internal: "/data/internal",
		External: []string{"/mnt/sd0"},
	})
	out := &bytes.Buffer{}
	return &shell{cur: navigator.New(reg, mem), out: out}, out
}

func run(t *testing.T, sh *shell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	assert.False(t, sh.exec(context.Background(), line))
	return out.String()
}

func TestShellNavigation(t *testing.T) {
	sh, out := newTestShell(t)

	assert.Equal(t, "/ (storage roots)\n", run(t, sh, out, "pwd"))
	assert.Equal(t, "0\tinternal\t/data/internal\n1\texternal\t/mnt/sd0\n", run(t, sh, out, "roots"))
	assert.Equal(t, "internal/\nsd0/\n", run(t, sh, out, "ls"))

	run(t, sh, out, "top 0")
	run(t, sh, out, "cd docs")
	assert.Equal(t, "[0] /data/internal/docs\n", run(t, sh, out, "pwd"))
	assert.Equal(t, "a.txt\nB.txt\nc.txt\n", run(t, sh, out, "ls asc"))
	assert.Equal(t, "c.txt\nB.txt\na.txt\n", run(t, sh, out, "ls desc"))

	run(t, sh, out, "cd ..")
	assert.Equal(t, "[0] /data/internal\n", run(t, sh, out, "pwd"))

	run(t, sh, out, "swap")
	assert.Equal(t, "[1] /mnt/sd0\n", run(t, sh, out, "pwd"))

	run(t, sh, out, "cd /data/internal/docs")
	assert.Equal(t, "[0] /data/internal/docs\n", run(t, sh, out, "pwd"))

	run(t, sh, out, "cd")
	assert.True(t, sh.cur.IsAtRoot())
}

func TestShellErrors(t *testing.T) {
	sh, out := newTestShell(t)

	assert.Contains(t, run(t, sh, out, "up"), "error: up: already at root")
	assert.Contains(t, run(t, sh, out, "top 3"), "storage not available")
	assert.Contains(t, run(t, sh, out, "top x"), "error: top:")
	assert.Contains(t, run(t, sh, out, "ls sideways"), "unknown order")
	assert.Contains(t, run(t, sh, out, "frobnicate"), "unknown command")
	assert.Contains(t, run(t, sh, out, "loc"), "FILENAV_SOURCE=postgres")
	assert.Empty(t, run(t, sh, out, "   "))
}

func TestShellFileOperations(t *testing.T) {
	sh, out := newTestShell(t)
	run(t, sh, out, "cd /data/internal/docs")

	assert.Equal(t, "/data/internal/docs/new.txt\n", run(t, sh, out, "touch new.txt"))
	assert.Equal(t, "/data/internal/docs/pics\n", run(t, sh, out, "mkdir pics"))
	assert.Equal(t, "/data/internal/docs/old.txt\n", run(t, sh, out, "mv new.txt old.txt"))
	assert.Empty(t, run(t, sh, out, "rm old.txt"))
	assert.Empty(t, run(t, sh, out, "rm /data/internal/docs/pics"))
	assert.Equal(t, "a.txt\nB.txt\nc.txt\n", run(t, sh, out, "ls"))

	assert.Contains(t, run(t, sh, out, "touch a.txt"), "operation failed")
	assert.Contains(t, run(t, sh, out, "rm missing"), "not found")
	assert.Contains(t, run(t, sh, out, "mv a.txt"), "usage")
}

func TestShellRel(t *testing.T) {
	sh, out := newTestShell(t)

	assert.Equal(t, "storage 0\tname docs/a.txt\tdir docs\n", run(t, sh, out, "rel /data/internal/docs/a.txt"))
	assert.Equal(t, "storage 1\tname x.jpg\tdir .\n", run(t, sh, out, "rel /mnt/sd0/x.jpg"))
	assert.Equal(t, "not in any storage\n", run(t, sh, out, "rel /etc/hosts"))
}

func TestShellLocations(t *testing.T) {
	sh, out := newTestShell(t)
	locs := &fakeLocations{enabled: map[int]bool{}}
	sh.locs = locs

	assert.Equal(t, "added location 1\n", run(t, sh, out, "loc add archive /srv/archive 10"))
	assert.Equal(t, "1\tarchive\t/srv/archive\tpriority=10\n", run(t, sh, out, "loc list"))
	assert.Contains(t, run(t, sh, out, "loc add nas srv/nas"), "must be absolute")

	assert.Empty(t, run(t, sh, out, "loc disable 1"))
	assert.False(t, locs.enabled[1])
	assert.Empty(t, run(t, sh, out, "loc enable 1"))
	assert.True(t, locs.enabled[1])
	assert.Contains(t, run(t, sh, out, "loc enable 9"), "not found")

	assert.Empty(t, run(t, sh, out, "loc del 1"))
	assert.Equal(t, []int{1}, locs.deleted)
	assert.Contains(t, run(t, sh, out, "loc purge"), "unknown subcommand")
}

func TestShellQuit(t *testing.T) {
	sh, _ := newTestShell(t)
	assert.True(t, sh.exec(context.Background(), "quit"))
	assert.True(t, sh.exec(context.Background(), "exit"))
	assert.True(t, strings.HasPrefix(helpText, "commands:"))
}
