package config

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher holds a hot-reloadable Document, re-parsing configDir whenever
// delivr.yaml or a release-configs/*.yaml template changes on disk. Readers
// call Current() and never block a writer. cmd/delivr does not build a
// Watcher: it calls Load once at startup, so edits on disk take effect
// only after a restart.
type Watcher struct {
	configDir string
	current   atomic.Pointer[Document]

	debounce time.Duration
	mu       sync.Mutex
	timer    *time.Timer

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher performs an initial Load and starts watching configDir for
// changes. Callers must call Close when finished.
func NewWatcher(configDir string) (*Watcher, error) {
	doc, err := Load(configDir)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(configDir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(configDir + "/release-configs"); err != nil {
		slog.Debug("release-configs directory not watched", "config_dir", configDir, "error", err)
	}

	w := &Watcher{
		configDir: configDir,
		debounce:  250 * time.Millisecond,
		watcher:   fw,
		done:      make(chan struct{}),
	}
	w.current.Store(doc)

	go w.run()
	return w, nil
}

// Current returns the most recently loaded, validated Document.
func (w *Watcher) Current() *Document {
	return w.current.Load()
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// scheduleReload debounces bursts of filesystem events (editors often emit
// several writes for a single save) into a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		doc, err := Load(w.configDir)
		if err != nil {
			slog.Error("config reload failed, keeping previous document", "error", err)
			return
		}
		w.current.Store(doc)
		slog.Info("configuration reloaded", "config_dir", w.configDir)
	})
}
