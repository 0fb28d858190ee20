// Package rom reads program images from storage.
package rom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxSize is the largest image that fits memory at the lowest load offset.
const MaxSize = 3584

var (
	ErrEmpty    = errors.New("program image is empty")
	ErrTooLarge = errors.New("program image too large")
)

// Load reads the image stored at path.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := Read(f)
	if err != nil {
		if errors.Is(err, ErrEmpty) || errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// Read consumes r and returns its content as a program image. It reads at
// most one byte past MaxSize to detect oversized input.
func Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	switch {
	case len(data) == 0:
		return nil, ErrEmpty
	case len(data) > MaxSize:
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxSize)
	}
	return data, nil
}

// ResolvePath returns the absolute form of path and the directory that
// contains it.
func ResolvePath(path string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}
