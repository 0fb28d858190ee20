package rom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/retroenv/retrogolib/assert"
)

func TestRead(t *testing.T) {
	data, err := Read(bytes.NewReader([]byte{0x00, 0xE0}))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xE0}, data)

	data, err = Read(bytes.NewReader(make([]byte, MaxSize)))
	assert.NoError(t, err)
	assert.Len(t, data, MaxSize)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = Read(bytes.NewReader(make([]byte, MaxSize+1)))
	assert.True(t, errors.Is(err, ErrTooLarge))

	ioErr := errors.New("device gone")
	_, err = Read(iotest.ErrReader(ioErr))
	assert.True(t, errors.Is(err, ioErr))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clear.ch8")
	assert.NoError(t, os.WriteFile(path, []byte{0x00, 0xE0}, 0o644))

	data, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xE0}, data)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.ch8"))
	assert.ErrorContains(t, err, "opening file")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	empty := filepath.Join(dir, "empty.ch8")
	assert.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Load(empty)
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = Load(dir)
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	full, dir, err := ResolvePath(filepath.Join("roms", "..", "roms", "pong.ch8"))
	assert.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "pong.ch8", filepath.Base(full))
	assert.Equal(t, filepath.Dir(full), dir)
	assert.Equal(t, "roms", filepath.Base(dir))
}
