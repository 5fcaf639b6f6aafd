package plan

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-admits plan tasks when the plan file changes on disk.
type Watcher struct {
	path    string
	onPlan  func(*Plan)
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the plan file and calls onPlan with each
// successfully parsed revision. The parent directory is watched, not the
// file itself, so editors that replace the file atomically are still seen.
func Watch(path string, onPlan func(*Plan)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		onPlan:  onPlan,
		watcher: fsWatcher,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// loop dispatches plan reloads on create/write events for the plan file.
// A revision that fails to parse is skipped; the previous admission stands.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if p, err := Load(w.path); err == nil {
				w.onPlan(p)
			}
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}
