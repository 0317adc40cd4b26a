package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/brokerd/internal/logfields"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the configuration directory for changes. The resolved
// Config is immutable for the process lifetime, so a detected change does not
// trigger a reload; it invokes the onChange callback (typically a logged
// restart-required notice) after debouncing rapid successive writes.
type Watcher struct {
	configDir    string
	onChange     func(path string)
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
	debounceTime time.Duration
}

// NewWatcher creates a watcher over dir. onChange receives the path of the
// changed file; it may be invoked from the watcher goroutine.
func NewWatcher(dir string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}

	return &Watcher{
		configDir:    absDir,
		onChange:     onChange,
		watcher:      fsw,
		stopChan:     make(chan struct{}),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. Watching the directory rather than individual
// files survives the rename-then-replace pattern editors use.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Add(w.configDir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", w.configDir, err)
	}

	slog.Info("watching configuration directory", logfields.ConfigDir(w.configDir))
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	var (
		pending   string
		debounce  *time.Timer
		debounced <-chan time.Time
	)

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
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = event.Name
			if debounce == nil {
				debounce = time.NewTimer(w.debounceTime)
				debounced = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounceTime)
			}
		case <-debounced:
			debounce = nil
			debounced = nil
			if w.onChange != nil {
				w.onChange(pending)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", logfields.Error(err))
		}
	}
}

func isConfigFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
