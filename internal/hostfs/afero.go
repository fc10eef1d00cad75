package hostfs

import (
	"os"

	"github.com/spf13/afero"
)

// Afero implements FS on top of an afero filesystem.
type Afero struct {
	fs afero.Fs
}

// NewAfero wraps an afero filesystem.
func NewAfero(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// NewOS returns an FS backed by the operating system.
func NewOS() *Afero {
	return NewAfero(afero.NewOsFs())
}

// NewMem returns a volatile in-memory FS.
func NewMem() *Afero {
	return NewAfero(afero.NewMemMapFs())
}

// Fs exposes the wrapped afero filesystem.
func (a *Afero) Fs() afero.Fs { return a.fs }

func (a *Afero) Stat(path string) (os.FileInfo, error) {
	return a.fs.Stat(path)
}

func (a *Afero) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(a.fs, path)
}

func (a *Afero) CreateFile(path string) error {
	f, err := a.fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (a *Afero) Remove(path string) error {
	return a.fs.Remove(path)
}

func (a *Afero) Rename(oldpath, newpath string) error {
	return a.fs.Rename(oldpath, newpath)
}

func (a *Afero) Mkdir(path string) error {
	return a.fs.Mkdir(path, 0755)
}
