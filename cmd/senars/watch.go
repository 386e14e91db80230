package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"senars/internal/logging"
)

// watchDebounce coalesces editor write bursts into one reload.
const watchDebounce = 200 * time.Millisecond

// watchInput reloads the input file whenever it changes on disk. The
// parent directory is watched so editors that replace the file (rename
// over it) still trigger. Returns a stop function.
func watchInput(ctx context.Context, path string, onChange func()) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	target := filepath.Clean(path)
	log := logging.Get(logging.CategoryConfig)

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Debugf("input changed: %s (%s)", ev.Name, ev.Op)
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, onChange)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("watch error: %v", err)
			}
		}
	}()
	return watcher.Close, nil
}
