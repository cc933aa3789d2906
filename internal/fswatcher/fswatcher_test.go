package fswatcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

const settle = 50 * time.Millisecond

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := func(s string) string {
		return filepath.Join(dir, filepath.FromSlash(s))
	}
	writefile(t, path("backend.proto"), "a")

	w, err := New([]string{dir}, nil, settle)
	qt.Assert(t, err, qt.IsNil)
	defer w.Close()

	// No events should happen initially.
	qt.Assert(t, readBatch(w), qt.HasLen, 0)

	writefile(t, path("fluent.proto"), "b")
	qt.Assert(t, readBatch(w), qt.DeepEquals, []Event{
		{path("fluent.proto"), Created},
	})

	writefile(t, path("backend.proto"), "a1")
	rm(t, path("fluent.proto"))
	qt.Assert(t, readBatch(w), qt.DeepEquals, []Event{
		{path("backend.proto"), Changed},
		{path("fluent.proto"), Removed},
	})
}

func TestWatcherCoalesces(t *testing.T) {
	dir := t.TempDir()
	set := filepath.Join(dir, "backend.pb")
	writefile(t, set, "0")

	w, err := New([]string{dir}, nil, settle)
	qt.Assert(t, err, qt.IsNil)
	defer w.Close()

	for _, content := range []string{"1", "2", "3"} {
		writefile(t, set, content)
	}
	qt.Assert(t, readBatch(w), qt.DeepEquals, []Event{{set, Changed}})
}

func TestWatcherRenameOver(t *testing.T) {
	dir := t.TempDir()
	set := filepath.Join(dir, "backend.pb")
	writefile(t, set, "0")

	w, err := New([]string{dir}, func(p string) bool {
		return p == set
	}, settle)
	qt.Assert(t, err, qt.IsNil)
	defer w.Close()

	tmp := filepath.Join(dir, ".backend.pb.tmp")
	writefile(t, tmp, "1")
	qt.Assert(t, os.Rename(tmp, set), qt.IsNil)
	qt.Assert(t, readBatch(w), qt.DeepEquals, []Event{{set, Created}})
}

func TestWatcherWithSelect(t *testing.T) {
	dir := t.TempDir()
	path := func(s string) string {
		return filepath.Join(dir, filepath.FromSlash(s))
	}
	mkdir(t, path("sub"))

	w, err := New([]string{dir, dir + "/"}, func(s string) bool {
		return strings.HasSuffix(s, ".proto")
	}, settle)
	qt.Assert(t, err, qt.IsNil)
	defer w.Close()

	writefile(t, path("notes.txt"), "x")
	writefile(t, path("sub/nested.proto"), "x") // Not watched recursively.
	mkdir(t, path("dir.proto"))
	writefile(t, path("a.proto"), "x")
	qt.Assert(t, readBatch(w), qt.DeepEquals, []Event{
		{path("a.proto"), Created},
	})
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, nil, settle)
	qt.Assert(t, err, qt.ErrorMatches, "no directories to watch")

	missing := filepath.Join(t.TempDir(), "missing")
	_, err = New([]string{missing}, nil, settle)
	qt.Assert(t, err, qt.ErrorMatches, `watched path ".*missing" must be an existing directory`)
}

func TestCloseEndsBatches(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, nil, settle)
	qt.Assert(t, err, qt.IsNil)

	// Change a file, then close the watcher to check that doesn't deadlock.
	writefile(t, filepath.Join(dir, "f"), "x")
	time.Sleep(time.Millisecond)
	qt.Assert(t, w.Close(), qt.IsNil)
	for range w.Batches() {
	}
}

func TestOpString(t *testing.T) {
	qt.Assert(t, Event{"/x", Removed}.String(), qt.Equals, `Removed "/x"`)
	qt.Assert(t, Op(7).String(), qt.Equals, "Op(7)")
}

func rm(t *testing.T, path string) {
	err := os.RemoveAll(path)
	qt.Assert(t, err, qt.IsNil)
}

func mkdir(t *testing.T, path string) {
	err := os.MkdirAll(path, 0o777)
	qt.Assert(t, err, qt.IsNil)
}

func writefile(t *testing.T, path, content string) {
	err := os.WriteFile(path, []byte(content), 0o666)
	qt.Assert(t, err, qt.IsNil)
}

// readBatch returns the next batch, or nil if none arrives in time.
func readBatch(w *Watcher) []Event {
	select {
	case b := <-w.Batches():
		return b
	case <-time.After(10 * settle):
		return nil
	}
}
