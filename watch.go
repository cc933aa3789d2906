package genbackend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rogpeppe/retry"
	"go.uber.org/zap"

	"github.com/stuartcarnie/genbackend/descriptor"
	"github.com/stuartcarnie/genbackend/internal/fswatcher"
)

// DefaultSettle is how long descriptor inputs must be quiet before Watch
// regenerates.
const DefaultSettle = 200 * time.Millisecond

var defaultRetry = retry.Strategy{
	Delay:    100 * time.Millisecond,
	MaxDelay: time.Second,
	MaxCount: 5,
}

// Watch performs a run and then another each time the descriptor inputs
// change, until ctx is done. Failed runs are logged and do not stop the
// watch.
func (r *Runner) Watch(ctx context.Context, settle time.Duration) error {
	dirs, selectPath := r.watchSet()
	w, err := fswatcher.New(dirs, selectPath, settle)
	if err != nil {
		return err
	}
	defer w.Close()
	zap.L().Info("Watching descriptor inputs", zap.Strings("dirs", dirs))

	r.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			for _, e := range batch {
				zap.L().Debug("Descriptor input changed", zap.Stringer("event", e))
			}
			r.runLogged(ctx)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context) {
	if _, err := r.runRetrying(ctx); err != nil && ctx.Err() == nil {
		zap.L().Error("Generation failed", zap.Error(err))
	}
}

// runRetrying retries runs that fail to load descriptors.
func (r *Runner) runRetrying(ctx context.Context) (*Result, error) {
	var (
		res *Result
		err error
	)
	for i := r.retry.Start(); i.Next(ctx.Done()); {
		res, err = r.Run()
		var le *descriptor.LoadError
		if !errors.As(err, &le) {
			return res, err
		}
		zap.L().Debug("Cannot load descriptors, retrying", zap.Error(err))
	}
	if err == nil {
		err = ctx.Err()
	}
	return res, err
}

// watchSet returns the directories holding descriptor inputs and a selector
// for the inputs themselves.
func (r *Runner) watchSet() ([]string, func(string) bool) {
	src := Source(r.cfg)
	if src.Set != "" {
		set := filepath.Clean(src.Set)
		return []string{filepath.Dir(set)}, func(path string) bool {
			return path == set
		}
	}

	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, ip := range src.ImportPaths {
		add(ip)
		for _, f := range src.Files {
			if _, err := os.Stat(filepath.Join(ip, f)); err == nil {
				add(filepath.Dir(filepath.Join(ip, f)))
			}
		}
	}
	return dirs, func(path string) bool {
		return strings.HasSuffix(path, ".proto")
	}
}
