package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/llehouerou/tunesearch/internal/query"
)

const appName = "tunesearch"

// DefaultCacheSize is the number of parsed queries memoized when the config
// does not say otherwise.
const DefaultCacheSize = 256

type Config struct {
	LibraryDB  string `koanf:"library_db"`  // sqlite database path
	ImportPath string `koanf:"import_path"` // directory scanned and watched for tracks
	LogFile    string `koanf:"log_file"`    // empty discards logs
	LogLevel   string `koanf:"log_level"`   // logrus level name (default: "info")

	Search SearchConfig `koanf:"search"`
}

// SearchConfig holds the matching behavior of the search box.
type SearchConfig struct {
	Repeat     string `koanf:"repeat"`      // "all" or "any" (default: "all")
	EmptyValue string `koanf:"empty_value"` // "present", "missing" or "nonempty" (default: "present")
	Workers    int    `koanf:"workers"`     // matcher goroutines, 0 means one per CPU
	CacheSize  *int   `koanf:"cache_size"`  // parser memo entries, 0 disables (default: 256)
}

// Load reads the config files in order of priority (last wins). A non-empty
// explicit path is read last and must exist.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if explicit != "" {
		if err := k.Load(file.Provider(explicit), toml.Parser()); err != nil {
			return nil, fmt.Errorf("%s: %w", explicit, err)
		}
	}

	cfg := &Config{
		LibraryDB:  filepath.Join(xdg.DataHome, appName, "library.db"),
		ImportPath: filepath.Join(xdg.UserDirs.Music, "import"),
		LogLevel:   "info",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.LibraryDB = expandPath(cfg.LibraryDB)
	cfg.ImportPath = expandPath(cfg.ImportPath)
	cfg.LogFile = expandPath(cfg.LogFile)

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tunesearch/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd); an explicit --config file still overrides it
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Matcher returns the query matcher described by the search section.
// Unknown values fall back to the defaults.
func (c *Config) Matcher() query.Matcher {
	m := query.DefaultMatcher()

	switch strings.ToLower(strings.TrimSpace(c.Search.Repeat)) {
	case "any":
		m.Repeat = query.RepeatAny
	case "all":
		m.Repeat = query.RepeatAll
	}

	switch strings.ToLower(strings.TrimSpace(c.Search.EmptyValue)) {
	case "present":
		m.Empty = query.EmptyPresent
	case "missing":
		m.Empty = query.EmptyMissing
	case "nonempty":
		m.Empty = query.EmptyNonEmpty
	}

	return m
}

// Workers returns the number of matcher goroutines; 0 lets the matcher pick.
func (c *Config) Workers() int {
	if c.Search.Workers < 0 {
		return 0
	}
	return c.Search.Workers
}

// CacheSize returns the parser memo size with the default applied.
func (c *Config) CacheSize() int {
	if c.Search.CacheSize == nil {
		return DefaultCacheSize
	}
	if *c.Search.CacheSize < 0 {
		return 0
	}
	return *c.Search.CacheSize
}

// Level returns the configured log level, info when unset or invalid.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
