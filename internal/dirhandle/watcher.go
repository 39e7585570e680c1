package dirhandle

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RevocationEvent reports that a watched directory went away, or that the
// watcher itself failed.
type RevocationEvent struct {
	Path string
	Op   string
	Err  error
}

// RevocationWatcher watches a selected directory and reports when the
// directory itself is removed or renamed. It never reads file content.
type RevocationWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan RevocationEvent
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching path.
func Watch(path string) (*RevocationWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(absPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", absPath, err)
	}

	w := &RevocationWatcher{
		watcher: watcher,
		path:    absPath,
		events:  make(chan RevocationEvent, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Path returns the watched directory.
func (w *RevocationWatcher) Path() string { return w.path }

// Events delivers at most one revocation per watched directory, plus any
// watcher errors. The channel is closed when the watcher stops.
func (w *RevocationWatcher) Events() <-chan RevocationEvent {
	return w.events
}

// Close stops the watcher. Safe to call more than once.
func (w *RevocationWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *RevocationWatcher) loop() {
	defer close(w.events)

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
			if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.send(RevocationEvent{Path: w.path, Op: event.Op.String()})
			return

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(RevocationEvent{Path: w.path, Err: err})
		}
	}
}

func (w *RevocationWatcher) send(event RevocationEvent) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}
