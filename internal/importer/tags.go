package importer

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/llehouerou/tunesearch/internal/library"
)

// Extensions imported without conversion.
const (
	ExtMP3  = ".mp3"
	ExtAIF  = ".aif"
	ExtAIFF = ".aiff"
)

// FileID computes the identifier of a track from its path: the md5 of the
// path without its extension.
func FileID(path string) string {
	sum := md5.Sum([]byte(strings.TrimSuffix(path, filepath.Ext(path))))
	return hex.EncodeToString(sum[:])
}

// Supported reports whether path is an importable track. macOS resource
// fork files ("._name") are never importable.
func Supported(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "._") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtAIF, ExtAIFF:
		return true
	}
	return false
}

// ReadTrack reads the tags of the file at path. Files without any tags are
// returned with their base name as title.
func ReadTrack(path string) (library.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return library.Track{}, err
	}

	t := library.Track{
		ID:    FileID(path),
		Path:  path,
		Mtime: info.ModTime().Unix(),
	}

	f, err := os.Open(path)
	if err != nil {
		return library.Track{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
		t.Title = filepath.Base(path)
		return t, nil
	case err != nil:
		return library.Track{}, fmt.Errorf("read tags of %s: %w", path, err)
	}

	t.Title = m.Title()
	if t.Title == "" {
		t.Title = filepath.Base(path)
	}
	t.Artist = m.Artist()
	t.Album = m.Album()
	t.Genre = m.Genre()

	raw := m.Raw()
	t.Publisher = rawText(raw, "TPUB", "TPB", "publisher", "label", "organization")
	t.Key = rawText(raw, "TKEY", "TKE", "initialkey", "key")
	t.Release = userText(raw, "RELEASE")
	if t.Release == "" {
		t.Release = rawText(raw, "release")
	}
	if t.Release == "" {
		t.Release = t.Album
	}

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		sum := md5.Sum(pic.Data)
		t.Artwork = hex.EncodeToString(sum[:])
	}

	return t, nil
}

// rawText returns the first non-empty string value among keys, compared
// case-insensitively against the raw tag names.
func rawText(raw map[string]any, keys ...string) string {
	for _, want := range keys {
		for name, v := range raw {
			if !strings.EqualFold(name, want) {
				continue
			}
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// userText returns the value of a user-defined ID3 text frame (TXXX) with
// the given description.
func userText(raw map[string]any, desc string) string {
	for name, v := range raw {
		if !strings.HasPrefix(name, "TXX") {
			continue
		}
		c, ok := v.(*tag.Comm)
		if ok && strings.EqualFold(c.Description, desc) {
			return strings.TrimSpace(c.Text)
		}
	}
	return ""
}
