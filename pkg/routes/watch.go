package routes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a table when its backing file changes
type Watcher struct {
	path    string
	table   *Table
	logger  logrus.FieldLogger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts reloading table from path until ctx is done or Close is called. The parent
// directory is watched so editors that replace the file are picked up.
func Watch(ctx context.Context, path string, table *Table, logger logrus.FieldLogger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		table:   table,
		logger:  logger.WithField("route_file", path),
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Done is closed when the watch loop exits
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Route watcher error")
		}
	}
}

func (w *Watcher) reload() {
	routes, err := readFile(w.path)
	if err == nil {
		err = w.table.Replace(routes)
	}
	if err != nil {
		// Keep serving the last good table
		w.logger.WithError(err).Warn("Failed to reload route table")
	} else {
		w.logger.WithField("routes", len(routes)).Info("Route table reloaded")
	}
}
