package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports which level directories of an export changed on disk.
// Events carries level names, debounced per level.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New watches root and the given level directories under it.
func New(root string, levels []string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := append([]string{root}, levels...)
	for i, dir := range dirs {
		if i > 0 {
			dir = filepath.Join(root, dir)
		}
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher:  w,
		root:     filepath.Clean(root),
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			level, ok := levelOf(w.root, event.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[level]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[level] = now
			select {
			case w.Events <- level:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// levelOf maps a changed path to the level directory holding it. A change
// directly under root names the level directory itself.
func levelOf(root, name string) (string, bool) {
	rel, err := filepath.Rel(root, filepath.Clean(name))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	level, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	if strings.HasPrefix(level, ".") {
		return "", false
	}
	return level, true
}
