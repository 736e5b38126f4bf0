// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scenefile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/xrlayer"
)

// Watch reloads the scene at path whenever it changes and calls fn with the
// new scene or the load error. The directory is watched rather than the
// file so editors that replace the file on save are followed. Watch blocks
// until ctx is done and returns ctx.Err().
func Watch(ctx context.Context, path string, fn func(*Scene, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("scenefile: watch %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("scenefile: watch %s: %w", path, err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("scenefile: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return ctx.Err()
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s, err := Load(path)
			if err != nil && event.Op&fsnotify.Rename != 0 {
				// The old name is gone; the Create of the replacement follows.
				continue
			}
			fn(s, err)
		case err, ok := <-watcher.Errors:
			if !ok {
				return ctx.Err()
			}
			xrlayer.Logger().Warn("scenefile: watcher error", "path", path, "error", err)
		}
	}
}
