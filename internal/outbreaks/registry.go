package outbreaks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

const (
	FeedTypeWHOJSON = "who_json"
	FeedTypeRSS     = "rss"
)

// Feed describes the configured outbreak source.
type Feed struct {
	URL      string
	Type     string
	LinkBase string
	PageSize int
}

// RawFetcher returns the body of a successful GET.
type RawFetcher interface {
	FetchRaw(ctx context.Context, url string) ([]byte, error)
}

// Fetcher turns one feed document into items, newest first as delivered.
type Fetcher interface {
	Type() string
	Fetch(ctx context.Context, feed Feed) ([]domain.OutbreakItem, error)
}

// FetcherRegistry resolves the fetcher implementation for a feed type.
type FetcherRegistry interface {
	FetcherFor(feed Feed) (Fetcher, error)
}

type fetcherRegistry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewFetcherRegistry builds a registry keyed by each fetcher's Type.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{fetchers: make(map[string]Fetcher)}
	for _, f := range fetchers {
		reg.register(f)
	}
	return reg
}

func (r *fetcherRegistry) register(f Fetcher) {
	if f == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(f.Type()))
	if key == "" {
		return
	}
	r.mu.Lock()
	r.fetchers[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the feed's type.
func (r *fetcherRegistry) FetcherFor(feed Feed) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	key := strings.ToLower(strings.TrimSpace(feed.Type))
	if key == "" {
		return nil, fmt.Errorf("feed type is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for feed type %q", feed.Type)
}

// DefaultFetcherRegistry wires up the known feed formats over raw.
func DefaultFetcherRegistry(raw RawFetcher) FetcherRegistry {
	return NewFetcherRegistry(NewWHOFetcher(raw), NewRSSFetcher(raw))
}
