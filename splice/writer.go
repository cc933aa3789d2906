package splice

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Writer splices generated text into files on a file system.
type Writer struct {
	fs      afero.Afero
	markers Markers
}

// NewWriter returns a Writer operating on fs. A nil fs means the OS file
// system.
func NewWriter(fs afero.Fs, markers Markers) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{fs: afero.Afero{Fs: fs}, markers: markers}
}

// Apply replaces the generated region of path with generated. It reports
// whether the file changed.
func (w *Writer) Apply(path, generated string) (bool, error) {
	return w.Update(path, func(string) (string, error) {
		return generated, nil
	})
}

// Update reads path once, passes the current generated region to render and
// replaces the region with its result. An error from render leaves path
// untouched. It reports whether the file changed. The new content is
// written to a temporary file in the same directory and renamed over path,
// so path is either fully updated or left untouched.
func (w *Writer) Update(path string, render func(region string) (string, error)) (bool, error) {
	info, err := w.fs.Stat(path)
	if err != nil {
		return false, err
	}
	content, err := w.fs.ReadFile(path)
	if err != nil {
		return false, err
	}
	r, err := w.markers.locate(content)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	generated, err := render(string(content[r.body:r.bodyEnd]))
	if err != nil {
		return false, err
	}
	updated := r.splice(content, w.markers, generated)

	oldSum, newSum := sha256.Sum256(content), sha256.Sum256(updated)
	if bytes.Equal(oldSum[:], newSum[:]) {
		zap.L().Debug("Generated region unchanged", zap.String("path", path))
		return false, nil
	}
	if err := w.replace(path, updated, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("cannot update %q: %w", path, err)
	}
	return true, nil
}

func (w *Writer) replace(path string, content []byte, perm os.FileMode) (err error) {
	tmp, err := w.fs.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			_ = w.fs.Remove(name)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := w.fs.Chmod(name, perm); err != nil {
		return err
	}
	return w.fs.Rename(name, path)
}
