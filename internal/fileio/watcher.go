package fileio

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/codeassist-ai/codeassist/internal/logging"
)

// Watcher re-reads project files when they change on disk and hands the
// fresh content to a callback. Used by the interactive CLI so a file edited
// in another editor stays current in the conversation context.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path, content string)
	done     chan struct{}
}

// NewWatcher creates a watcher delivering changed-file content to onChange.
func NewWatcher(onChange func(path, content string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Add starts watching a file.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			data, err := NewLocal("").ReadFile(ev.Name)
			if err != nil {
				logging.Warn().Err(err).Str("path", ev.Name).Msg("re-read of changed file failed")
				continue
			}
			w.onChange(ev.Name, data)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("file watcher error")
		}
	}
}
