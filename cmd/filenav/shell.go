package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fruitsalade/filenav/internal/navigator"
	"github.com/fruitsalade/filenav/internal/storage"
)

// LocationAdmin manages rows of the storage_locations table.
type LocationAdmin interface {
	ListEnabled(ctx context.Context) ([]storage.LocationRow, error)
	Create(ctx context.Context, loc *storage.LocationRow) error
	SetEnabled(ctx context.Context, id int, enabled bool) error
	Delete(ctx context.Context, id int) error
}

type shell struct {
	cur  *navigator.Cursor
	out  io.Writer
	locs LocationAdmin // nil unless the postgres source is in use
}

const helpText = `commands:
  pwd                       show the current location
  roots                     list storage roots
  ls [asc|desc|none]        list the current directory
  cd [NAME|PATH|..]         change directory; no argument goes to the root
  up | root | top N | swap  navigate
  touch NAME | mkdir NAME   create a file or directory
  rm NAME|PATH              delete a file or empty directory
  mv NAME|PATH NEWNAME      rename in place
  rel PATH                  show which storage owns PATH
  loc [list|add NAME PATH [PRIORITY]|enable ID|disable ID|del ID]
  quit`

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "pwd":
		s.pwd()
	case "roots":
		for _, r := range s.cur.Roots() {
			fmt.Fprintf(s.out, "%d\t%s\t%s\n", r.Index, r.Kind, r.Path)
		}
	case "ls":
		err = s.ls(args)
	case "cd":
		err = s.cd(args)
	case "up":
		err = s.cur.Up()
	case "root":
		s.cur.ToRoot()
	case "top":
		err = s.top(args)
	case "swap":
		err = s.cur.Swap()
	case "touch":
		err = s.create(args, s.cur.CreateFile)
	case "mkdir":
		err = s.create(args, s.cur.Mkdir)
	case "rm":
		err = s.rm(args)
	case "mv":
		err = s.mv(args)
	case "rel":
		err = s.rel(args)
	case "loc":
		err = s.loc(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q (try help)", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

func (s *shell) pwd() {
	dir, ok := s.cur.Dir()
	if !ok {
		fmt.Fprintln(s.out, "/ (storage roots)")
		return
	}
	fmt.Fprintf(s.out, "[%d] %s\n", s.cur.Storage(), dir)
}

func (s *shell) ls(args []string) error {
	order := navigator.SortAscending
	if len(args) > 0 {
		switch args[0] {
		case "asc":
		case "desc":
			order = navigator.SortDescending
		case "none":
			order = navigator.SortNone
		default:
			return fmt.Errorf("ls: unknown order %q", args[0])
		}
	}
	entries, err := s.cur.List(order)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		fmt.Fprintln(s.out, name)
	}
	return nil
}

func (s *shell) cd(args []string) error {
	if len(args) == 0 {
		s.cur.ToRoot()
		return nil
	}
	target := args[0]
	switch {
	case target == "..":
		return s.cur.Up()
	case filepath.IsAbs(target):
		return s.cur.DescendTo(target)
	default:
		return s.cur.Descend(target)
	}
}

func (s *shell) top(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: top N")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("top: %w", err)
	}
	return s.cur.Top(index)
}

func (s *shell) create(args []string, fn func(string) (string, error)) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one name")
	}
	path, err := fn(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, path)
	return nil
}

// resolve turns a name in the current directory or an absolute path into a
// path.
func (s *shell) resolve(arg string) (string, error) {
	if filepath.IsAbs(arg) {
		return s.cur.FilePath(arg, "")
	}
	return s.cur.FilePath("", arg)
}

func (s *shell) rm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm NAME|PATH")
	}
	if filepath.IsAbs(args[0]) {
		return s.cur.Delete(args[0], "")
	}
	return s.cur.Delete("", args[0])
}

func (s *shell) mv(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: mv NAME|PATH NEWNAME")
	}
	path, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	dest, err := s.cur.Rename(path, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, dest)
	return nil
}

func (s *shell) rel(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rel PATH")
	}
	owner := s.cur.PathOwner(args[0])
	if owner == storage.RootIndex {
		fmt.Fprintln(s.out, "not in any storage")
		return nil
	}
	name, _ := s.cur.RelativeName(args[0])
	dir, ok := s.cur.RelativeDir(args[0])
	if !ok {
		dir = "."
	}
	fmt.Fprintf(s.out, "storage %d\tname %s\tdir %s\n", owner, name, dir)
	return nil
}

func (s *shell) loc(ctx context.Context, args []string) error {
	if s.locs == nil {
		return fmt.Errorf("loc: storage locations need FILENAV_SOURCE=postgres")
	}
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		rows, err := s.locs.ListEnabled(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Fprintf(s.out, "%d\t%s\t%s\tpriority=%d\n", row.ID, row.Name, row.Path, row.Priority)
		}
		return nil
	case "add":
		if len(args) < 3 || len(args) > 4 {
			return fmt.Errorf("usage: loc add NAME PATH [PRIORITY]")
		}
		row := &storage.LocationRow{Name: args[1], Path: filepath.Clean(args[2]), Enabled: true}
		if !filepath.IsAbs(row.Path) {
			return fmt.Errorf("loc add: path must be absolute: %q", args[2])
		}
		if len(args) == 4 {
			p, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("loc add: priority: %w", err)
			}
			row.Priority = p
		}
		if err := s.locs.Create(ctx, row); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "added location %d\n", row.ID)
		return nil
	case "enable", "disable", "del":
		if len(args) != 2 {
			return fmt.Errorf("usage: loc %s ID", args[0])
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("loc %s: %w", args[0], err)
		}
		if args[0] == "del" {
			return s.locs.Delete(ctx, id)
		}
		return s.locs.SetEnabled(ctx, id, args[0] == "enable")
	default:
		return fmt.Errorf("loc: unknown subcommand %q", args[0])
	}
}
