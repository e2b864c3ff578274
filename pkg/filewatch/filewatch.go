// Package filewatch calls back with a file's content whenever it changes.
package filewatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reads path, calls fn with its content, then calls fn again after
// every write to or re-creation of the file until ctx ends. A change that
// leaves the content identical to the last delivered content is not
// reported.
//
// The parent directory is watched rather than the file itself so that
// editors that save by renaming a temporary file are still followed.
func Watch(ctx context.Context, path string, fn func(content string)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	last, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	fn(string(last))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			content, err := os.ReadFile(path)
			if err != nil {
				// Mid-save; the next event will have the content.
				continue
			}
			if string(content) == string(last) {
				continue
			}
			last = content
			fn(string(content))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}
