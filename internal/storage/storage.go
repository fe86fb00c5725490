package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage provides the key/value backends behind the response cache.

// Store holds cached payloads keyed by source URL.
type Store interface {
	Close() error
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Len() (int, error)
}

// Options controls retention characteristics for concrete store implementations.
// A zero EntryTTL keeps entries for the lifetime of the store.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	TypeMemory = "memory"
	TypeBBolt  = "bbolt"

	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeMemory:
		return newMemoryStore(opts), nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL < 0 {
		opts.EntryTTL = 0
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}
