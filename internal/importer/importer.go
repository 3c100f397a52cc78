// Package importer keeps the library in sync with the tracks found in an
// import directory.
package importer

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/tunesearch/internal/library"
)

const numWorkers = 8

// ScanStats lists the paths changed by a scan, relative to the root.
type ScanStats struct {
	Added   []string
	Updated []string
	Removed []string
}

// Store is the part of the library the importer writes to.
type Store interface {
	UpsertAll(ctx context.Context, tracks []library.Track) error
	Upsert(ctx context.Context, t library.Track) error
	DeleteByPath(ctx context.Context, path string) (bool, error)
	Mtimes(ctx context.Context, root string) (map[string]int64, error)
}

var _ Store = (*library.Library)(nil)

type Importer struct {
	store  Store
	root   string
	log    logrus.FieldLogger
	notify func()
}

// New returns an importer for the tracks under root.
func New(store Store, root string, log logrus.FieldLogger) *Importer {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Importer{
		store: store,
		root:  filepath.Clean(root),
		log:   log.WithField("root", root),
	}
}

// OnChange registers fn to be called after the watcher changed the library.
func (im *Importer) OnChange(fn func()) {
	im.notify = fn
}

func (im *Importer) changed() {
	if im.notify != nil {
		im.notify()
	}
}

type found struct {
	path  string
	mtime int64
}

// Scan imports every new or modified track under the root and removes
// library tracks whose file disappeared. Unreadable files are logged and
// skipped.
func (im *Importer) Scan(ctx context.Context) (ScanStats, error) {
	var stats ScanStats
	log := im.log.WithField("phase", "scan")

	existing, err := im.store.Mtimes(ctx, im.root+string(filepath.Separator))
	if err != nil {
		return stats, err
	}

	var files []found
	err = filepath.WalkDir(im.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			log.WithError(walkErr).WithField("path", path).Warn("skipping unreadable path")
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished during the walk
		}
		files = append(files, found{path: path, mtime: info.ModTime().Unix()})
		return ctx.Err()
	})
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(files))
	var todo []found
	for _, f := range files {
		seen[f.path] = true
		if mtime, ok := existing[f.path]; ok && mtime == f.mtime {
			continue
		}
		todo = append(todo, f)
	}

	tracks := make([]library.Track, len(todo))
	ok := make([]bool, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := ReadTrack(f.path)
			if err != nil {
				log.WithError(err).WithField("path", f.path).Warn("cannot read tags")
				return nil
			}
			tracks[i], ok[i] = t, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	var batch []library.Track
	for i, f := range todo {
		if !ok[i] {
			continue
		}
		batch = append(batch, tracks[i])
		if _, existed := existing[f.path]; existed {
			stats.Updated = append(stats.Updated, im.rel(f.path))
		} else {
			stats.Added = append(stats.Added, im.rel(f.path))
		}
	}
	if err := im.store.UpsertAll(ctx, batch); err != nil {
		return stats, err
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		if _, err := im.store.DeleteByPath(ctx, path); err != nil {
			return stats, err
		}
		stats.Removed = append(stats.Removed, im.rel(path))
	}

	log.WithFields(logrus.Fields{
		"added":   len(stats.Added),
		"updated": len(stats.Updated),
		"removed": len(stats.Removed),
	}).Info("scan complete")
	return stats, nil
}

// Import reads and stores a single file.
func (im *Importer) Import(ctx context.Context, path string) error {
	t, err := ReadTrack(path)
	if err != nil {
		return err
	}
	if err := im.store.Upsert(ctx, t); err != nil {
		return err
	}
	im.log.WithFields(logrus.Fields{"path": path, "id": t.ID}).Info("imported track")
	return nil
}

// Remove drops the track stored at path.
func (im *Importer) Remove(ctx context.Context, path string) error {
	removed, err := im.store.DeleteByPath(ctx, path)
	if err != nil {
		return err
	}
	if removed {
		im.log.WithField("path", path).Info("removed track")
	}
	return nil
}

func (im *Importer) rel(path string) string {
	rel, err := filepath.Rel(im.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// pending tracks paths with an import already scheduled.
type pending struct {
	mu    sync.Mutex
	paths map[string]bool
}

func (p *pending) add(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paths[path] {
		return false
	}
	p.paths[path] = true
	return true
}

func (p *pending) done(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.paths, path)
}
