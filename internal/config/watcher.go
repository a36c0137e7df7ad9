package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/shellpad/internal/log"
)

// Watcher reloads the config file on change and hands the result to a
// callback. Editors often replace files atomically (write to temp,
// rename over), so the parent directory is watched, not the file.
type Watcher struct {
	path    string
	onLoad  func(Config)
	logger  *log.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// debounceWindow coalesces the burst of events an atomic save produces.
const debounceWindow = 100 * time.Millisecond

// Watch starts watching path. onLoad runs on the watcher goroutine
// after every successful reload; parse failures are logged and the
// previous config stays in effect.
func Watch(path string, onLoad func(Config), logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Null
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	w := &Watcher{
		path:    abs,
		onLoad:  onLoad,
		logger:  logger.WithComponent("config"),
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("reload failed, keeping previous config: %v", err)
		return
	}
	w.logger.Info("config reloaded from %s", w.path)
	w.onLoad(cfg)
}
