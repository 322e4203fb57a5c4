package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce is how long the file must be quiet before a reload.
const DefaultReloadDebounce = 500 * time.Millisecond

// Watcher reloads a config file when it changes and delivers each valid
// result on Updates. Invalid files are logged and skipped.
type Watcher struct {
	path     string
	debounce time.Duration
	loader   func(path string) (Config, error)

	watcher *fsnotify.Watcher
	updates chan Config
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a Watcher for path. The loader is called fresh on
// every change.
func NewWatcher(path string, debounce time.Duration, loader func(path string) (Config, error)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		loader:   loader,
		updates:  make(chan Config, 1),
		done:     make(chan struct{}),
	}
}

// Updates returns the channel on which reloaded configs are delivered. Only
// the latest unread config is kept.
func (w *Watcher) Updates() <-chan Config {
	return w.updates
}

// Start begins watching. The parent directory is watched so that editors
// which replace the file on save are still seen.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.watcher = fw

	log.Printf("Config watcher started: %s", w.path)
	w.wg.Add(1)
	go w.watch()
	return nil
}

// Stop stops watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
	}
	w.wg.Wait()
	return err
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader(w.path)
	if err != nil {
		log.Printf("Config reload failed, keeping current settings: %v", err)
		return
	}

	// Replace any unread config with the newer one.
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
	log.Printf("Config reloaded from %s", w.path)
}
