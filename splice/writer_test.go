package splice

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostFile = `from typing import Sequence

class RustBackend:
    # MARK-BEGIN
    def stale(self): ...
    # MARK-END

    def _run_command(self, method, input): ...
`

func TestWriterApply(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/rsbackend.py", []byte(hostFile), 0o640))
	w := NewWriter(fs, markTest)

	changed, err := w.Apply("/src/rsbackend.py", "    def fresh(self): ...\n")
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := afero.ReadFile(fs, "/src/rsbackend.py")
	require.NoError(t, err)
	assert.Equal(t, `from typing import Sequence

class RustBackend:
    # MARK-BEGIN

    def fresh(self): ...

    # MARK-END

    def _run_command(self, method, input): ...
`, string(data))

	info, err := fs.Stat("/src/rsbackend.py")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	// No temporary files are left behind.
	entries, err := afero.ReadDir(fs, "/src")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rsbackend.py", entries[0].Name())

	changed, err = w.Apply("/src/rsbackend.py", "    def fresh(self): ...\n")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWriterMissingMarkersLeavesFileUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	original := []byte("X\n# MARK-BEGIN\nno end marker\nY\n")
	require.NoError(t, afero.WriteFile(fs, "/host.py", original, 0o644))
	w := NewWriter(fs, markTest)

	changed, err := w.Apply("/host.py", "new\n")
	assert.False(t, changed)
	assert.True(t, errors.Is(err, ErrMissingSentinelMarkers))
	assert.Contains(t, err.Error(), "/host.py")

	data, err := afero.ReadFile(fs, "/host.py")
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestWriterMissingFile(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs(), markTest)
	_, err := w.Apply("/missing.py", "new\n")
	assert.True(t, os.IsNotExist(err), "got %v", err)
}

// countingFs counts the files opened for reading.
type countingFs struct {
	afero.Fs
	opens int
}

func (fs *countingFs) Open(name string) (afero.File, error) {
	fs.opens++
	return fs.Fs.Open(name)
}

func TestWriterUpdate(t *testing.T) {
	fs := &countingFs{Fs: afero.NewMemMapFs()}
	require.NoError(t, afero.WriteFile(fs, "/src/rsbackend.py", []byte(hostFile), 0o644))
	w := NewWriter(fs, markTest)

	var seen []string
	changed, err := w.Update("/src/rsbackend.py", func(region string) (string, error) {
		seen = append(seen, region)
		return "    def fresh(self): ...\n", nil
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"    def stale(self): ...\n"}, seen)
	assert.Equal(t, 1, fs.opens)

	changed, err = w.Update("/src/rsbackend.py", func(region string) (string, error) {
		seen = append(seen, region)
		return "    def fresh(self): ...\n", nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "\n    def fresh(self): ...\n\n", seen[1])
	assert.Equal(t, 2, fs.opens)
}

func TestWriterUpdateRenderErrorLeavesFileUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/host.py", []byte(hostFile), 0o644))
	w := NewWriter(fs, markTest)

	renderErr := errors.New("indices moved")
	changed, err := w.Update("/host.py", func(string) (string, error) {
		return "new\n", renderErr
	})
	assert.False(t, changed)
	assert.Equal(t, renderErr, err)

	data, err := afero.ReadFile(fs, "/host.py")
	require.NoError(t, err)
	assert.Equal(t, hostFile, string(data))
}

func TestWriterDoesNotRewriteMatchingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsbackend.py")
	require.NoError(t, os.WriteFile(path, []byte(hostFile), 0o644))
	w := NewWriter(nil, markTest)

	changed, err := w.Apply(path, "    def fresh(self): ...\n")
	require.NoError(t, err)
	require.True(t, changed)
	info, err := os.Stat(path)
	require.NoError(t, err)

	// mtime resolution is often a second, so wait at least that long.
	time.Sleep(time.Second)
	changed, err = w.Apply(path, "    def fresh(self): ...\n")
	require.NoError(t, err)
	require.False(t, changed)

	info1, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, info.ModTime(), info1.ModTime())
}
