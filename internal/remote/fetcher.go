// Package remote fetches JSON documents over HTTP in a single bounded attempt.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
)

// DefaultTimeout bounds a single fetch attempt.
const DefaultTimeout = 10 * time.Second

// StatusError reports a non-2xx response.
type StatusError struct {
	URL     string
	Status  int
	Snippet string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d body: %s", e.URL, e.Status, e.Snippet)
}

// Unwrap lets callers match the failure with errors.Is(err, domain.ErrNetworkFailure).
func (e *StatusError) Unwrap() error { return domain.ErrNetworkFailure }

// Fetcher issues GET requests and returns the body as validated JSON.
type Fetcher struct {
	client  httpclient.Client
	headers map[string]string
}

// NewFetcher builds a Fetcher. A nil client gets a resty client with DefaultTimeout.
func NewFetcher(client httpclient.Client, userAgent string) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(DefaultTimeout)
	}
	headers := map[string]string{"Accept": "application/json"}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		headers["User-Agent"] = ua
	}
	return &Fetcher{client: client, headers: headers}
}

// FetchJSON performs one GET. Every failure wraps domain.ErrNetworkFailure.
func (f *Fetcher) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	body, err := f.FetchRaw(ctx, url)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed json from %s: %s", domain.ErrNetworkFailure, url, responseSnippet(body))
	}
	return json.RawMessage(body), nil
}

// FetchRaw performs one GET and returns the body of a 2xx response unparsed.
func (f *Fetcher) FetchRaw(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrNetworkFailure)
	}

	resp, err := f.client.Get(ctx, url, f.headers)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrNetworkFailure, url, err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{URL: url, Status: resp.StatusCode(), Snippet: responseSnippet(body)}
	}
	return body, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
