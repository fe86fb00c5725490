// Package datacache memoizes remote JSON documents by source URL.
package datacache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
	"github.com/Adda-Baaj/arogya-bot/internal/storage"
)

// JSONFetcher is the remote side of the cache.
type JSONFetcher interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	FetchFailures int64 `json:"fetch_failures"`
	Entries       int   `json:"entries"`
}

// Cache returns stored payloads and fetches on a miss. Failed fetches are
// never stored, so a later call retries.
type Cache struct {
	store   storage.Store
	fetcher JSONFetcher
	group   singleflight.Group
	log     logger.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// New wires a cache over store and fetcher.
func New(store storage.Store, fetcher JSONFetcher, log logger.Logger) *Cache {
	return &Cache{
		store:   store,
		fetcher: fetcher,
		log:     logger.Ensure(log),
	}
}

// GetOrFetch returns the payload for url, fetching it on a miss. Concurrent
// misses share one fetch, which is detached from any single caller's
// cancellation and bounded by the fetcher's own timeout. A caller whose ctx
// ends stops waiting without affecting the others.
func (c *Cache) GetOrFetch(ctx context.Context, url string) (json.RawMessage, error) {
	if c == nil || c.store == nil || c.fetcher == nil {
		return nil, fmt.Errorf("data cache is not initialized")
	}

	if payload, ok := c.lookup(url); ok {
		c.hits.Add(1)
		return payload, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(url, func() (any, error) {
		// another caller may have filled the entry while we queued
		if payload, ok := c.lookup(url); ok {
			c.hits.Add(1)
			return payload, nil
		}
		c.misses.Add(1)

		payload, err := c.fetcher.FetchJSON(fetchCtx, url)
		if err != nil {
			c.failures.Add(1)
			return nil, err
		}
		if err := c.store.Put(url, payload); err != nil {
			c.log.WarnObj("cache store write failed", "cache_error", map[string]any{
				"url":   url,
				"error": err.Error(),
			})
		}
		c.log.DebugObj("cache populated", "cache_fill", map[string]any{
			"url":   url,
			"bytes": len(payload),
		})
		return payload, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrNetworkFailure, ctx.Err())
	}
}

// Invalidate drops url so the next call refetches it.
func (c *Cache) Invalidate(url string) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Delete(url)
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	st := Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		FetchFailures: c.failures.Load(),
	}
	if c.store != nil {
		if n, err := c.store.Len(); err == nil {
			st.Entries = n
		}
	}
	return st
}

func (c *Cache) lookup(url string) (json.RawMessage, bool) {
	payload, ok, err := c.store.Get(url)
	if err != nil {
		c.log.WarnObj("cache store read failed", "cache_error", map[string]any{
			"url":   url,
			"error": err.Error(),
		})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return json.RawMessage(payload), true
}
