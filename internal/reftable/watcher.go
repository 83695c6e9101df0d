package reftable

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after a watcher-driven table reload.
type ReloadCallback func()

// Watch starts an fsnotify watcher on the table directory and resyncs
// the database whenever a CSV file changes, until ctx is cancelled.
// Events are debounced so an editor save burst triggers one reload.
// cb (if non-nil) runs after each successful resync.
//
// New directories created at runtime are automatically added to the
// watch list.
func Watch(ctx context.Context, db Tables, dir string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", dir))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			if syncErr := Sync(db, dir, logger); syncErr != nil {
				logger.Warn("watcher: resync failed", slog.String("error", syncErr.Error()))
				continue
			}
			logger.Info("watcher: tables reloaded")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleReload()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".csv") {
				continue
			}
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
