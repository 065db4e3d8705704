package env

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "tasslsrc"

// WorkDir returns the per-user cache directory used when the caller gives
// no output root, creating it if needed.
//
//	Linux:   $XDG_CACHE_HOME/tasslsrc or ~/.cache/tasslsrc
//	macOS:   ~/Library/Caches/tasslsrc
func WorkDir() (string, error) {
	dir := filepath.Join(xdg.CacheHome, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// SourcesDir returns the directory holding fetched source checkouts.
func SourcesDir() (string, error) {
	work, err := WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(work, "sources"), nil
}

// Or returns the value of key, or def when key is unset or empty.
func Or(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
