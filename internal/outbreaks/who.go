package outbreaks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

// whoFetcher reads the structured Disease Outbreak News API.
type whoFetcher struct {
	raw RawFetcher
}

// NewWHOFetcher builds the fetcher for JSON feeds shaped like the WHO DON API.
func NewWHOFetcher(raw RawFetcher) Fetcher {
	return &whoFetcher{raw: raw}
}

func (f *whoFetcher) Type() string { return FeedTypeWHOJSON }

type whoDocument struct {
	Value []whoItem `json:"value"`
	Items []whoItem `json:"items"`
}

type whoItem struct {
	Title           string `json:"Title"`
	PublicationDate string `json:"PublicationDate"`
	Date            string `json:"Date"`
	ItemDefaultURL  string `json:"ItemDefaultUrl"`
	URL             string `json:"Url"`
	Link            string `json:"Link"`
	Summary         string `json:"Summary"`
}

func (f *whoFetcher) Fetch(ctx context.Context, feed Feed) ([]domain.OutbreakItem, error) {
	if f.raw == nil {
		return nil, fmt.Errorf("who fetcher has no http fetcher")
	}
	body, err := f.raw.FetchRaw(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	return parseWHODocument(body, feed.LinkBase)
}

func parseWHODocument(body []byte, linkBase string) ([]domain.OutbreakItem, error) {
	var doc whoDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode outbreak feed: %v", domain.ErrNetworkFailure, err)
	}

	entries := doc.Value
	if len(entries) == 0 {
		entries = doc.Items
	}

	items := make([]domain.OutbreakItem, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		items = append(items, domain.OutbreakItem{
			Title:       title,
			PublishedAt: parsePublicationDate(firstNonEmpty(e.PublicationDate, e.Date)),
			Link:        resolveLink(firstNonEmpty(e.ItemDefaultURL, e.URL, e.Link), linkBase),
			Summary:     plainTextExcerpt(e.Summary, summaryMaxRunes),
		})
	}
	return items, nil
}

var publicationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
	"2 January 2006",
}

func parsePublicationDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// resolveLink joins relative item links onto base.
func resolveLink(link, base string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if u.IsAbs() || strings.TrimSpace(base) == "" {
		return link
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(link, "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
