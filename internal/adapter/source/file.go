package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// File reads a CSV from the local filesystem on every Fetch.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Location() string { return f.path }

func (f *File) Fetch(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}
	return string(data), nil
}
