// Package sink persists generated pages.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrSinkFailure wraps every error that left the destination untouched.
var ErrSinkFailure = errors.New("sink failure")

// FileSink writes pages into a single output directory. Writes go through a
// temporary file in the same directory and are renamed into place, so a
// destination holds either the previous or the new content, never a mix.
type FileSink struct {
	fs  afero.Fs
	dir string
}

func NewFileSink(fs afero.Fs, dir string) *FileSink {
	return &FileSink{fs: fs, dir: dir}
}

func NewOsFileSink(dir string) *FileSink {
	return NewFileSink(afero.NewOsFs(), dir)
}

func (s *FileSink) Dir() string {
	return s.dir
}

// Path returns the destination path of name.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileSink) Write(name, text string) error {
	if err := ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkFailure, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", ErrSinkFailure, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %v", ErrSinkFailure, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		s.fs.Remove(tmpName)
	}

	if _, err := io.WriteString(tmp, text); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to write %s: %v", ErrSinkFailure, name, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to sync %s: %v", ErrSinkFailure, name, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: failed to close %s: %v", ErrSinkFailure, name, err)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: failed to set permissions on %s: %v", ErrSinkFailure, name, err)
	}
	if err := s.fs.Rename(tmpName, s.Path(name)); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("%w: failed to move %s into place: %v", ErrSinkFailure, name, err)
	}

	return nil
}

// Read returns the content of a previously written page. A missing page
// reports an error satisfying errors.Is(err, os.ErrNotExist).
func (s *FileSink) Read(name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", os.ErrNotExist, err)
	}
	return afero.ReadFile(s.fs, s.Path(name))
}

// ValidateName accepts plain file names only: no directories, no dot files.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New("empty file name")
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return fmt.Errorf("file name %q must not contain a path", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("file name %q must not start with a dot", name)
	}
	return nil
}
