// Package watch observes the shared root for changes and keeps the
// tree-size gauge current. Listings never read from here; every request
// re-reads the filesystem, so the watcher is purely observability.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"fileroom/internal/metrics"
)

// recountDelay batches bursts of events into one tree recount.
const recountDelay = 500 * time.Millisecond

type Watcher struct {
	root string
	fw   *fsnotify.Watcher
	log  *logrus.Entry

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over rootAbs and all directories below it.
// Symlinked directories are not watched, matching the listing walker.
func New(rootAbs string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root: rootAbs,
		fw:   fw,
		log:  logrus.WithField("component", "watch"),
		done: make(chan struct{}),
	}
	if err := w.addRecursive(rootAbs); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Start begins event processing and publishes an initial tree size.
func (w *Watcher) Start() {
	w.recount()
	w.wg.Add(1)
	go w.loop()
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var recount *time.Timer
	var recountC <-chan time.Time
	schedule := func() {
		if recount == nil {
			recount = time.NewTimer(recountDelay)
			recountC = recount.C
			return
		}
		if !recount.Stop() {
			select {
			case <-recount.C:
			default:
			}
		}
		recount.Reset(recountDelay)
	}

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			metrics.RecordWatchEvent(ev.Op.String())
			w.log.WithFields(logrus.Fields{
				"op":   ev.Op.String(),
				"name": ev.Name,
			}).Debug("fs event")
			if ev.Op.Has(fsnotify.Create) {
				if st, err := os.Lstat(ev.Name); err == nil && st.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.log.WithError(err).Debug("watch new dir")
					}
				}
			}
			schedule()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		case <-recountC:
			w.recount()
		}
	}
}

// addRecursive watches dir and everything below it. WalkDir does not
// follow symlinks, so symlinked directories stay unwatched just as they
// stay unlisted.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			// Subdirectories can vanish mid-walk; nothing to watch then.
			return nil
		}
		if d.IsDir() {
			return w.fw.Add(p)
		}
		return nil
	})
}

func (w *Watcher) recount() {
	var n int64
	_ = filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		n++
		return nil
	})
	metrics.SetTreeSize(n)
	w.log.WithField("entries", n).Debug("tree recount")
}
