package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/typespeed/typespeed/internal/logger"
)

// Watcher observes the scan root and triggers a rescan after changes settle.
// Events are debounced so a burst of writes queues a single rescan.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	trigger  func()
	log      *logger.Logger
}

func NewWatcher(root string, debounce time.Duration, trigger func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	w := &Watcher{
		fsw:      fsw,
		root:     root,
		debounce: debounce,
		trigger:  trigger,
		log:      logger.Default().WithPrefix("watcher"),
	}
	if err := w.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != root) {
			return filepath.SkipDir
		}
		if werr := w.fsw.Add(path); werr != nil {
			w.log.Warn("failed to watch %s: %v", path, werr)
		}
		return nil
	})
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.log.Info("watching %s for changes", w.root)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watcher shutting down")
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.log.Debug("fs event: %s %s", ev.Op, ev.Name)
			// New directories need their own watch before the rescan runs.
			if ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = w.addRecursive(ev.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.log.Info("changes settled, triggering rescan")
			w.trigger()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	// Directory events matter for new watches; file events only for
	// supported languages.
	if DetectLanguage(ev.Name) != "" {
		return true
	}
	return filepath.Ext(ev.Name) == ""
}
