package outbreaks

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

// rssFetcher reads RSS or Atom renditions of the outbreak feed.
type rssFetcher struct {
	raw    RawFetcher
	parser *gofeed.Parser
}

// NewRSSFetcher builds the fetcher for RSS/Atom feeds.
func NewRSSFetcher(raw RawFetcher) Fetcher {
	return &rssFetcher{raw: raw, parser: gofeed.NewParser()}
}

func (f *rssFetcher) Type() string { return FeedTypeRSS }

func (f *rssFetcher) Fetch(ctx context.Context, feed Feed) ([]domain.OutbreakItem, error) {
	if f.raw == nil {
		return nil, fmt.Errorf("rss fetcher has no http fetcher")
	}
	body, err := f.raw.FetchRaw(ctx, feed.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse outbreak rss: %v", domain.ErrNetworkFailure, err)
	}

	items := make([]domain.OutbreakItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		item := domain.OutbreakItem{
			Title:   title,
			Link:    resolveLink(it.Link, feed.LinkBase),
			Summary: plainTextExcerpt(firstNonEmpty(it.Description, it.Content), summaryMaxRunes),
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			item.PublishedAt = *it.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}
