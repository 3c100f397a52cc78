package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleInterval is how often a new file's size is polled until it stops
// growing.
var settleInterval = 500 * time.Millisecond

// Watch keeps the library in sync with changes under the root until ctx is
// cancelled. New or rewritten files are imported once their size settles;
// removed or renamed files are dropped.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := im.watchTree(w, im.root); err != nil {
		return err
	}

	inflight := &pending{paths: make(map[string]bool)}
	log := im.log.WithField("phase", "watch")
	log.Info("watching import directory")

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			im.handle(ctx, w, ev, inflight)
		}
	}
}

func (im *Importer) handle(ctx context.Context, w *fsnotify.Watcher, ev fsnotify.Event, inflight *pending) {
	log := im.log.WithField("path", ev.Name)

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if !Supported(ev.Name) {
			return
		}
		if err := im.Remove(ctx, ev.Name); err != nil {
			log.WithError(err).Warn("cannot remove track")
			return
		}
		im.changed()

	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := im.watchTree(w, ev.Name); err != nil {
				log.WithError(err).Warn("cannot watch directory")
			}
			return
		}
		if !Supported(ev.Name) || !inflight.add(ev.Name) {
			return
		}
		go func() {
			defer inflight.done(ev.Name)
			if !waitSettled(ctx, ev.Name) {
				return
			}
			if err := im.Import(ctx, ev.Name); err != nil {
				log.WithError(err).Warn("cannot import track")
				return
			}
			im.changed()
		}()
	}
}

// watchTree adds dir and every directory below it to w.
func (im *Importer) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable subtrees are not watched
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(path)
	})
}

// waitSettled blocks until the size of path is unchanged across one
// settleInterval. It returns false if the file vanished or ctx ended.
func waitSettled(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	size := info.Size()

	t := time.NewTicker(settleInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == size {
			return true
		}
		size = info.Size()
	}
}
