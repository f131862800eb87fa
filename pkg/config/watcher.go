package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeCallback is called after a successful reload
type ChangeCallback func(oldConfig, newConfig *Config)

// Watcher watches the configuration file and reloads it on change
type Watcher struct {
	manager      *ConfigManager
	watcher      *fsnotify.Watcher
	logger       *zap.Logger
	path         string
	debounceTime time.Duration

	mu        sync.Mutex
	callbacks []ChangeCallback
	timer     *time.Timer
	stopOnce  sync.Once
	stopChan  chan struct{}
	done      chan struct{}
}

// NewWatcher creates a watcher for the manager's config file
func NewWatcher(manager *ConfigManager, logger *zap.Logger) (*Watcher, error) {
	path := manager.Path()
	if path == "" {
		return nil, fmt.Errorf("config manager has no path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Editors replace files by rename, so watch the directory
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return &Watcher{
		manager:      manager,
		watcher:      fw,
		logger:       logger.Named("config"),
		path:         path,
		debounceTime: 500 * time.Millisecond,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// SetDebounceTime sets the debounce time for reload events
func (w *Watcher) SetDebounceTime(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceTime = d
}

// OnChange registers a callback for successful reloads
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start runs the watch loop in the background
func (w *Watcher) Start() {
	w.logger.Info("watching config file", zap.String("path", w.path))
	go w.watchLoop()
}

// Stop stops the watcher and waits for the loop to exit
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("closing file watcher", zap.Error(err))
		}
		<-w.done

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if !w.isWatchedFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	// Collapse bursts of writes into a single reload
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceTime, w.reload)
}

func (w *Watcher) isWatchedFile(filename string) bool {
	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return false
	}
	absWatchPath, err := filepath.Abs(w.path)
	if err != nil {
		return false
	}
	return absFilename == absWatchPath
}

func (w *Watcher) reload() {
	select {
	case <-w.stopChan:
		return
	default:
	}

	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		w.logger.Warn("config file no longer exists", zap.String("path", w.path))
		return
	}

	oldConfig := w.manager.GetConfig()
	if err := w.manager.Reload(); err != nil {
		w.logger.Error("failed to reload configuration", zap.Error(err))
		return
	}
	newConfig := w.manager.GetConfig()

	w.mu.Lock()
	callbacks := append([]ChangeCallback{}, w.callbacks...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(oldConfig, newConfig)
	}
	w.logger.Info("configuration reloaded", zap.String("path", w.path))
}
