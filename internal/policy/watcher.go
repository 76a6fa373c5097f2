package policy

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

// Watcher monitors the policy file and delivers reloaded policies to a
// callback. Editors often produce several filesystem events for one
// save, so reloads are debounced.
type Watcher struct {
	path     string
	onReload func(*Policy)
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	mu           sync.Mutex
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a watcher for the policy file at path. The
// callback receives each successfully loaded policy.
func NewWatcher(path string, logger *zap.Logger, onReload func(*Policy)) (*Watcher, error) {
	if onReload == nil {
		return nil, fault.New(fault.KindPreconditionViolated, "reload callback is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fault.Wrap(fault.KindIO, "resolve policy path", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fault.Wrap(fault.KindIO, "create file watcher", err)
	}

	return &Watcher{
		path:         absPath,
		onReload:     onReload,
		watcher:      fsWatcher,
		logger:       logger,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 500 * time.Millisecond,
	}, nil
}

// Start begins watching the policy file's directory. Watching the
// directory rather than the file survives the rename-and-replace saves
// most editors do.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fault.Wrapf(fault.KindIO, err, "watch policy directory %s", dir)
	}

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	w.logger.Info("policy watcher started", zap.String("path", w.path))
	return nil
}

// Stop shuts the watcher down. It must be called at most once.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		return fault.Wrap(fault.KindIO, "close file watcher", err)
	}
	w.logger.Info("policy watcher stopped")
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.triggerReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("policy watcher error", zap.Error(err))
		}
	}
}

// triggerReload requests a reload without blocking the event loop. A
// pending request already covers any burst of events.
func (w *Watcher) triggerReload() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.reloadChan:
			w.mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceTime, func() {
				w.performReload()
			})
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) performReload() {
	p, err := Load(w.path)
	if err != nil {
		w.logger.Error("policy reload failed, keeping previous policy",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}
	if p == nil {
		w.logger.Warn("policy file removed, keeping previous policy", zap.String("path", w.path))
		return
	}

	w.logger.Info("policy reloaded", zap.String("path", w.path))
	w.onReload(p)
}
