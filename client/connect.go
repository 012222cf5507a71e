package client

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WaitForConnectionFile blocks until path exists, or ctx is done. Jupyter
// launches a kernel before its connection file is necessarily flushed to
// disk, so a front-end that started the kernel process itself needs to wait
// for the file to appear before it can read a profile.KernelProfile from it.
func WaitForConnectionFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithMessage(err, "creating connection-file watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return errors.WithMessagef(err, "watching directory %s", dir)
	}

	// The file may have been created between the Stat above and Add.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("connection-file watcher closed unexpectedly")
			}
			if event.Name == path && (event.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("connection-file watcher closed unexpectedly")
			}
			return errors.WithMessage(err, "watching connection file")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
