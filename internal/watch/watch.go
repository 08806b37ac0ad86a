// Package watch reports changes to a fixed set of input files.
//
// Parent directories are watched rather than the files themselves, so
// editors that save by rename are still seen.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	cerrors "choromap/internal/errors"
	"choromap/internal/logger"
)

// Watcher batches filesystem events for a set of files and hands each
// settled batch to a callback.
type Watcher struct {
	mu       sync.Mutex
	fw       *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	pending  map[string]time.Time
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// New watches paths. A change is reported once no further event for the
// same file arrived within debounce.
func New(paths []string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, cerrors.New(cerrors.KindValidation, "nothing to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "create watcher")
	}
	w := &Watcher{
		fw:       fw,
		files:    make(map[string]bool, len(paths)),
		debounce: debounce,
		pending:  make(map[string]time.Time),
		log:      logger.OrNop(log),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	dirs := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, cerrors.Wrap(err, cerrors.KindFile, "resolve path").WithDetail("path", p)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, cerrors.Wrap(err, cerrors.KindFile, "watch directory").WithDetail("dir", dir)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Start runs the event loop in a goroutine until ctx is done or Stop is
// called. onChange receives the sorted paths that changed.
func (w *Watcher) Start(ctx context.Context, onChange func(paths []string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	w.running = true
	go w.run(ctx, onChange)
	return nil
}

// Stop ends the event loop and releases the watcher. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fw.Close(); err != nil {
		w.log.Warn("closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context, onChange func([]string)) {
	defer close(w.doneCh)

	tick := max(w.debounce/4, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case now := <-ticker.C:
			if changed := w.settled(now); len(changed) > 0 {
				onChange(changed)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)
	if !w.files[name] {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.log.Debug("input event", zap.String("path", name), zap.String("op", ev.Op.String()))
	w.pending[name] = time.Now()
}

// settled removes and returns the pending paths that have been quiet for
// the debounce interval.
func (w *Watcher) settled(now time.Time) []string {
	var out []string
	for p, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			out = append(out, p)
			delete(w.pending, p)
		}
	}
	sort.Strings(out)
	return out
}
