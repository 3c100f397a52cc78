package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	dbutil "github.com/llehouerou/tunesearch/internal/db"
	"github.com/llehouerou/tunesearch/internal/query"
)

// Track is one library entry.
type Track struct {
	ID        string // md5 of the path without its extension
	Path      string
	Mtime     int64
	Title     string
	Artist    string
	Album     string
	Release   string
	Publisher string
	Genre     string
	Key       string // musical key, e.g. "08A"
	Artwork   string // md5 of the embedded picture, "" when none
}

// Field implements query.Entry.
func (t Track) Field(f query.Filter) string {
	switch f {
	case query.FilterID:
		return t.ID
	case query.FilterTitle:
		return t.Title
	case query.FilterArtist:
		return t.Artist
	case query.FilterAlbum:
		return t.Album
	case query.FilterRelease:
		return t.Release
	case query.FilterPublisher:
		return t.Publisher
	case query.FilterGenre:
		return t.Genre
	case query.FilterKey:
		return t.Key
	case query.FilterArtwork:
		return t.Artwork
	}
	return ""
}

var _ query.Entry = Track{}

// ErrNotFound is returned when no track has the requested id.
var ErrNotFound = errors.New("track not found")

type Library struct {
	db      *sql.DB
	log     logrus.FieldLogger
	workers int
}

// Open opens the library database at path and initializes its schema.
func Open(path string, log logrus.FieldLogger) (*Library, error) {
	db, err := dbutil.Open(path)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return New(db, log), nil
}

// New wraps a database whose schema is already initialized.
func New(db *sql.DB, log logrus.FieldLogger) *Library {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Library{db: db, log: log}
}

// SetWorkers sets how many goroutines Search uses; 0 means one per CPU.
func (l *Library) SetWorkers(n int) {
	l.workers = n
}

func (l *Library) Close() error {
	return l.db.Close()
}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert inserts t or replaces the track with the same id.
func (l *Library) Upsert(ctx context.Context, t Track) error {
	return upsertTrack(ctx, l.db, t)
}

// UpsertAll writes tracks in a single transaction.
func (l *Library) UpsertAll(ctx context.Context, tracks []Track) error {
	return dbutil.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		for _, t := range tracks {
			if err := upsertTrack(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTrack(ctx context.Context, ex executor, t Track) error {
	now := time.Now().Unix()
	_, err := ex.ExecContext(ctx, `
		INSERT INTO library_tracks (id, path, mtime, title, artist, album, release_name, publisher, genre, musical_key, artwork, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			mtime = excluded.mtime,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			release_name = excluded.release_name,
			publisher = excluded.publisher,
			genre = excluded.genre,
			musical_key = excluded.musical_key,
			artwork = excluded.artwork,
			updated_at = excluded.updated_at
	`, t.ID, t.Path, t.Mtime, t.Title, t.Artist, t.Album, t.Release, t.Publisher, t.Genre, t.Key, t.Artwork, now, now)
	return err
}

// Delete removes the track with the given id. Deleting a missing id is not
// an error.
func (l *Library) Delete(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM library_tracks WHERE id = ?`, id)
	return err
}

// DeleteByPath removes the track stored at path and reports whether one was.
func (l *Library) DeleteByPath(ctx context.Context, path string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM library_tracks WHERE path = ?`, path)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const trackColumns = `id, path, mtime, title, artist, album, release_name, publisher, genre, musical_key, artwork`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(s scanner) (Track, error) {
	var t Track
	err := s.Scan(&t.ID, &t.Path, &t.Mtime, &t.Title, &t.Artist, &t.Album, &t.Release,
		&t.Publisher, &t.Genre, &t.Key, &t.Artwork)
	return t, err
}

// Track returns the track with the given id.
func (l *Library) Track(ctx context.Context, id string) (Track, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM library_tracks WHERE id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Track{}, ErrNotFound
	}
	return t, err
}

// Tracks returns every track ordered by artist, album and title.
func (l *Library) Tracks(ctx context.Context) ([]Track, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+trackColumns+`
		FROM library_tracks
		ORDER BY artist COLLATE NOCASE, album COLLATE NOCASE, title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Mtimes returns path -> mtime for every track stored under root.
func (l *Library) Mtimes(ctx context.Context, root string) (map[string]int64, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT path, mtime FROM library_tracks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, err
		}
		if strings.HasPrefix(path, root) {
			out[path] = mtime
		}
	}
	return out, rows.Err()
}

func (l *Library) Count(ctx context.Context) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_tracks`).Scan(&count)
	return count, err
}
