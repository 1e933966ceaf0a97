// Package fileio provides the file-source collaborators: local reads, glob
// expansion, uploaded-file storage, and change watching.
package fileio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

// ErrNotFound is returned when a requested file does not exist.
var ErrNotFound = errors.New("file not found")

// Source reads files for the core. Implementations map backend failures to
// ErrNotFound or wrapped I/O errors.
type Source interface {
	ReadFile(path string) (string, error)
}

// Local reads files from the filesystem rooted at Dir. An empty Dir reads
// paths as given.
type Local struct {
	Dir string
}

// NewLocal creates a local file source.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

// ReadFile returns the file content. Fails with ErrNotFound for missing
// files and a wrapped error for other I/O failures.
func (l *Local) ReadFile(path string) (string, error) {
	full := l.resolve(path)

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ReadGlob expands a doublestar pattern relative to Dir and reads every
// match into a ProjectFile, sorted by filename.
func (l *Local) ReadGlob(pattern string) ([]types.ProjectFile, error) {
	base := l.Dir
	if base == "" {
		base = "."
	}

	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return nil, fmt.Errorf("bad glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var files []types.ProjectFile
	for _, match := range matches {
		content, err := l.ReadFile(match)
		if err != nil {
			return nil, err
		}
		files = append(files, types.ProjectFile{Filename: match, Content: content})
	}
	return files, nil
}

func (l *Local) resolve(path string) string {
	if l.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.Dir, path)
}
