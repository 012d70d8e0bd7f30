package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RigChange is emitted when the watched rig file settles after an edit.
// Err is set when the new contents failed to load; Rig is then nil.
type RigChange struct {
	Rig  *RigFile
	Err  error
	File string
}

// RigWatcher monitors a rig file for edits using fsnotify. It watches the
// containing directory so editors that replace the file on save still
// trigger a reload.
type RigWatcher struct {
	Path    string
	Changes <-chan RigChange // Read-only external channel

	changes  chan RigChange // Internal write channel
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
	started  bool
}

// NewRigWatcher creates a watcher for the rig file at path.
func NewRigWatcher(path string) (*RigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan RigChange, 4)
	return &RigWatcher{
		Path:     abs,
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching the rig file's directory.
func (w *RigWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *RigWatcher) Stop() {
	w.watcher.Close()
	if w.started {
		<-w.done // Wait for loop to exit
	}
	close(w.changes)
}

func (w *RigWatcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= w.debounce {
				pending = time.Time{}
				w.emit()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event retries.
		}
	}
}

func (w *RigWatcher) emit() {
	rig, err := LoadRigFile(w.Path)
	change := RigChange{Rig: rig, Err: err, File: w.Path}
	select {
	case w.changes <- change:
	default:
		// Drop when the consumer is behind; a later edit emits again.
	}
}
