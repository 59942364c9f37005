package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmylchreest/pokepalette/internal/palette"
)

// File stores one JSON document per key under a directory. Entries older than the
// TTL, judged by modification time, are misses.
type File struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// DefaultDir returns the default cache directory path.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "pokepalette", "palettes"), nil
	}
	return filepath.Join(cacheDir, "pokepalette", "palettes"), nil
}

// NewFile creates the cache directory if needed. An empty dir uses DefaultDir.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	if dir == "" {
		def, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = def
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &File{dir: dir, ttl: ttl, now: time.Now}, nil
}

// path maps a key to a file name; the prefix separator is not portable.
func (f *File) path(key string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(key, ":", "-")+".json")
}

// Get implements Cache.
func (f *File) Get(_ context.Context, key string) (palette.Result, error) {
	path := f.path(key)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to stat cache entry: %w", err)
	}
	if f.ttl > 0 && f.now().Sub(info.ModTime()) >= f.ttl {
		return nil, ErrMiss
	}

	data, err := os.ReadFile(path) // #nosec G304 - Path derived from a hashed key
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	var result palette.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return result, nil
}

// Set implements Cache. The entry is written to a temporary file and renamed so
// concurrent readers never see a partial document.
func (f *File) Set(_ context.Context, key string, result palette.Result) error {
	if result == nil {
		result = palette.Result{}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode palette: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache entry: %w", errors.Join(writeErr, closeErr))
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Close implements Cache.
func (f *File) Close() error {
	return nil
}
