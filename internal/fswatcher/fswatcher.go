// Package fswatcher reports changes to the descriptor inputs of a generation
// run. Events are grouped into batches: a batch is delivered once the watched
// files have been quiet for the settle delay, so a compiler rewriting several
// files produces a single regeneration.
package fswatcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op represents a kind of event that can happen to a watched file.
type Op int

const (
	_ = Op(iota)
	Created
	Changed
	Removed
)

func (op Op) String() string {
	switch op {
	case Created:
		return "Created"
	case Changed:
		return "Changed"
	case Removed:
		return "Removed"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// merge folds a later operation on the same path into an earlier one.
func (op Op) merge(next Op) Op {
	switch {
	case op == Created && next == Changed:
		return Created
	case op == Removed && next == Created:
		// Replaced by rename.
		return Changed
	}
	return next
}

type Event struct {
	Path string
	Op   Op
}

func (e Event) String() string {
	return fmt.Sprintf("%v %q", e.Op, e.Path)
}

// Watcher watches the files directly inside a set of directories.
type Watcher struct {
	batchCh    chan []Event
	mw         *fsnotify.Watcher
	selectPath func(path string) bool
	settle     time.Duration
	closed     chan struct{}
	done       chan struct{}
}

// New returns a Watcher for the files in dirs for which selectPath returns
// true. Directories are not watched recursively. A nil selectPath selects
// every file.
//
// The returned watcher should be closed by calling Close after use.
func New(dirs []string, selectPath func(path string) bool, settle time.Duration) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories to watch")
	}
	if selectPath == nil {
		selectPath = func(string) bool { return true }
	}
	mw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create new watcher: %v", err)
	}
	added := make(map[string]bool)
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if added[dir] {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			mw.Close()
			return nil, fmt.Errorf("watched path %q must be an existing directory", dir)
		}
		if err := mw.Add(dir); err != nil {
			mw.Close()
			return nil, fmt.Errorf("cannot watch %q: %w", dir, err)
		}
		added[dir] = true
	}

	w := &Watcher{
		batchCh:    make(chan []Event),
		mw:         mw,
		selectPath: selectPath,
		settle:     settle,
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.batchCh)
	defer close(w.done)

	var (
		pending []Event
		index   = make(map[string]int)
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case e, ok := <-w.mw.Events:
			if !ok {
				return
			}
			ev, ok := w.translate(e)
			if !ok {
				continue
			}
			if i, ok := index[ev.Path]; ok {
				pending[i].Op = pending[i].Op.merge(ev.Op)
			} else {
				index[ev.Path] = len(pending)
				pending = append(pending, ev)
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.settle)
			fire = timer.C
		case err, ok := <-w.mw.Errors:
			if !ok {
				return
			}
			zap.L().Warn("File watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			batch := pending
			pending = nil
			index = make(map[string]int)
			select {
			case w.batchCh <- batch:
			case <-w.closed:
				return
			}
		}
	}
}

func (w *Watcher) translate(e fsnotify.Event) (Event, bool) {
	path := filepath.Clean(e.Name)
	if !w.selectPath(path) {
		return Event{}, false
	}
	switch {
	// fsnotify reports a rename as a Rename of the old name followed by a
	// Create of the new one.
	case e.Op&(fsnotify.Rename|fsnotify.Remove) != 0:
		return Event{path, Removed}, true
	case e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) != 0:
		fi, err := os.Stat(path)
		if err != nil || fi.IsDir() {
			// Gone again already, or not a file.
			return Event{}, false
		}
		if e.Op&fsnotify.Create != 0 {
			return Event{path, Created}, true
		}
		return Event{path, Changed}, true
	}
	return Event{}, false
}

// Close closes the watcher. Nothing more will be sent on the Batches channel
// after this returns.
func (w *Watcher) Close() error {
	close(w.closed)
	err := w.mw.Close()
	<-w.done
	return err
}

// Batches returns a channel on which groups of events are received, each
// with at most one event per path in order of first occurrence.
func (w *Watcher) Batches() <-chan []Event {
	return w.batchCh
}
