package filelist

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
}

func TestAdd(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.jpg", "a.jpg")

	s := New(nil)
	require.NoError(t, s.Add(filepath.Join(dir, "b.jpg")))
	require.NoError(t, s.Add(filepath.Join(dir, "a.jpg")))
	assert.ErrorIs(t, s.Add(filepath.Join(dir, "a.jpg")), ErrExist)
	assert.ErrorIs(t, s.Add(dir), ErrIsDir)
	assert.ErrorIs(t, s.Add(filepath.Join(dir, "c.jpg")), fs.ErrNotExist)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg")}, s.Paths())
}

func TestScanFiltersJPEG(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "IMG_0002.JPG", "IMG_0001.jpeg", "notes.txt", "out.jpg", "noext")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	s := New(nil)
	n, err := s.Scan(dir, JPEG("out.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		filepath.Join(dir, "IMG_0001.jpeg"),
		filepath.Join(dir, "IMG_0002.JPG"),
	}, s.Paths())
}

func TestExpandSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "0001.jpg", "0003.jpg", "0004.jpg")

	s := New(nil)
	n, err := s.Expand(filepath.Join(dir, "%04d.jpg"), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// overlapping ranges are de-duplicated
	n, err = s.Expand(filepath.Join(dir, "%04d.jpg"), 3, 5)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, s.Len())

	_, err = s.Expand(filepath.Join(dir, "plain.jpg"), 1, 2)
	assert.Error(t, err)
}
