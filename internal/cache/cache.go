// Package cache stores extracted palettes keyed by sprite content and extraction
// parameters.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/jmylchreest/pokepalette/internal/palette"
)

// ErrMiss is returned by Get when no live entry exists for a key.
var ErrMiss = errors.New("cache miss")

// KeyPrefix namespaces every key.
const KeyPrefix = "pokepalette:"

// Cache stores palettes. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (palette.Result, error)
	Set(ctx context.Context, key string, result palette.Result) error
	Close() error
}

// Key derives the cache key for a sprite. Any parameter that can change the palette
// must be part of the key.
func Key(sprite []byte, id int, alg palette.Algorithm, limit int) string {
	d := xxhash.New()
	_, _ = d.Write(sprite)

	var params [16]byte
	binary.LittleEndian.PutUint64(params[:8], uint64(int64(id)))
	binary.LittleEndian.PutUint64(params[8:], uint64(int64(limit)))
	_, _ = d.Write(params[:])
	_, _ = d.WriteString(string(alg))

	return fmt.Sprintf("%s%016x", KeyPrefix, d.Sum64())
}

// Settings selects and configures a backend.
type Settings struct {
	// Backend is one of memory, redis, file or none.
	Backend string
	TTL     time.Duration

	// Dir is the file backend directory; empty uses DefaultDir.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates the configured backend. The redis backend is pinged before returning.
func New(ctx context.Context, s Settings) (Cache, error) {
	switch s.Backend {
	case "memory", "":
		return NewMemory(s.TTL), nil
	case "redis":
		return NewRedis(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB, s.TTL)
	case "file":
		return NewFile(s.Dir, s.TTL)
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", s.Backend)
	}
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) (palette.Result, error) { return nil, ErrMiss }

func (Nop) Set(context.Context, string, palette.Result) error { return nil }

func (Nop) Close() error { return nil }
