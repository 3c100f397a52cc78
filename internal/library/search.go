package library

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tunesearch/internal/query"
)

// Search returns the tracks matching q, in library order.
func (l *Library) Search(ctx context.Context, q query.Compiled, m query.Matcher) ([]Track, error) {
	start := time.Now()

	tracks, err := l.candidates(ctx, q, m)
	if err != nil {
		return nil, err
	}

	idx, err := query.FilterEntries(ctx, m, q, tracks, l.workers)
	if err != nil {
		return nil, err
	}

	out := make([]Track, len(idx))
	for i, j := range idx {
		out[i] = tracks[j]
	}

	l.log.WithFields(logrus.Fields{
		"candidates": len(tracks),
		"matched":    len(out),
		"elapsed":    time.Since(start),
	}).Debug("library search")
	return out, nil
}

// candidates loads the tracks worth matching. An id filter that every
// result must satisfy narrows the load to that single row.
func (l *Library) candidates(ctx context.Context, q query.Compiled, m query.Matcher) ([]Track, error) {
	ids := q.Values(query.FilterID)
	if m.Repeat != query.RepeatAll || len(ids) == 0 || ids[0] == "" {
		return l.Tracks(ctx)
	}

	t, err := l.Track(ctx, ids[0])
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []Track{t}, nil
}
