package library

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Rescan asks the owner to rescan a library root after files changed
// under it.
type Rescan struct{ Root string }

// Watcher observes library folders recursively and coalesces bursts of
// file events into debounced Rescan notifications.
type Watcher struct {
	fsw   *fsnotify.Watcher
	roots []string
	out   chan Rescan
	done  chan struct{}
}

// NewWatcher starts watching each root and all of its subdirectories.
func NewWatcher(roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:   fsw,
		roots: roots,
		out:   make(chan Rescan, 4),
		done:  make(chan struct{}),
	}
	for _, root := range roots {
		w.addRecursive(root)
	}
	go w.loop()
	return w, nil
}

// Events delivers debounced rescan requests.
func (w *Watcher) Events() <-chan Rescan { return w.out }

// Close stops the watcher. Events is not closed; callers stop reading.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = w.fsw.Add(path)
		}
		return nil
	})
}

// loop folds raw fsnotify events into at most one Rescan per root per
// debounce window.
func (w *Watcher) loop() {
	pending := map[string]bool{}
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			// New directories need their own watch before anything
			// inside them is visible.
			if ev.Op.Has(fsnotify.Create) {
				w.addRecursive(ev.Name)
			}
			if root := w.rootFor(ev.Name); root != "" {
				pending[root] = true
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			}

		case <-fire:
			for root := range pending {
				select {
				case w.out <- Rescan{Root: root}:
				default:
				}
			}
			pending = map[string]bool{}
			fire = nil

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	// Directory events matter for watch registration; file events only
	// for supported formats.
	if IsSupportedPath(ev.Name) {
		return true
	}
	return filepath.Ext(ev.Name) == ""
}

func (w *Watcher) rootFor(path string) string {
	for _, root := range w.roots {
		if path == root {
			return root
		}
		if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasDotDotPrefix(rel) {
			return root
		}
	}
	return ""
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
