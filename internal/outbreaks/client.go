// Package outbreaks lists recent outbreak announcements from a public feed.
package outbreaks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

// DefaultPageSize is the number of items kept from the head of the feed.
const DefaultPageSize = 5

// Client fetches the feed fresh on every call.
type Client struct {
	feed     Feed
	registry FetcherRegistry
	log      logger.Logger
}

// NewClient builds a client for feed using the fetchers in registry.
func NewClient(feed Feed, registry FetcherRegistry, log logger.Logger) *Client {
	feed.URL = strings.TrimSpace(feed.URL)
	feed.Type = strings.ToLower(strings.TrimSpace(feed.Type))
	if feed.PageSize <= 0 {
		feed.PageSize = DefaultPageSize
	}
	return &Client{feed: feed, registry: registry, log: logger.Ensure(log)}
}

// List returns up to PageSize items in feed order. When filter is non-empty
// only items whose title contains it case-insensitively are kept. A failed
// fetch returns nil and an error wrapping domain.ErrNetworkFailure; a
// successful fetch with no matches returns an empty, non-nil slice.
func (c *Client) List(ctx context.Context, filter string) ([]domain.OutbreakItem, error) {
	fetcher, err := c.registry.FetcherFor(c.feed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}

	items, err := fetcher.Fetch(ctx, c.feed)
	if err != nil {
		c.log.WarnObj("outbreak feed fetch failed", "outbreak_error", map[string]any{
			"url":   c.feed.URL,
			"type":  c.feed.Type,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("fetch outbreak feed: %w", err)
	}

	if len(items) > c.feed.PageSize {
		items = items[:c.feed.PageSize]
	}

	out := FilterByTitle(items, filter)
	c.log.DebugObj("outbreak feed listed", "outbreak_result", map[string]any{
		"fetched": len(items),
		"kept":    len(out),
		"filter":  filter,
	})
	return out, nil
}

// FilterByTitle keeps items whose title contains filter, ignoring case.
// The result is never nil and preserves order.
func FilterByTitle(items []domain.OutbreakItem, filter string) []domain.OutbreakItem {
	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]domain.OutbreakItem, 0, len(items))
	for _, it := range items {
		if filter == "" || strings.Contains(strings.ToLower(it.Title), filter) {
			out = append(out, it)
		}
	}
	return out
}
