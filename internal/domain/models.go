package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain contains core models and the error taxonomy shared by resolvers,
// the dispatcher and the inbound handlers.

var (
	// ErrNetworkFailure marks a remote fetch that could not complete.
	ErrNetworkFailure = errors.New("network failure")
	// ErrDataNotFound marks a disease absent from the dataset.
	ErrDataNotFound = errors.New("data not found")
	// ErrEmptyResult marks a feed that yielded no items after filtering.
	ErrEmptyResult = errors.New("empty result")
	// ErrUpstreamUnavailable marks a failed call to the classification service.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnknownCategory marks a category with no configured dataset.
	ErrUnknownCategory = errors.New("unknown category")
)

// Category is an information category backed by one dataset.
type Category string

const (
	CategorySymptoms   Category = "symptoms"
	CategoryPrevention Category = "prevention"
)

// ParseCategory maps user or config input onto a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "symptoms", "symptom":
		return CategorySymptoms, nil
	case "prevention", "preventions", "prevention_measures":
		return CategoryPrevention, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// OutbreakItem is one entry of the live outbreak feed.
type OutbreakItem struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary,omitempty"`
}

// DisplayLine renders the item as a single reply line.
func (o OutbreakItem) DisplayLine() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(o.Title))
	if !o.PublishedAt.IsZero() {
		b.WriteString(" (")
		b.WriteString(o.PublishedAt.Format("2 Jan 2006"))
		b.WriteString(")")
	}
	if link := strings.TrimSpace(o.Link); link != "" {
		b.WriteString(" - ")
		b.WriteString(link)
	}
	return b.String()
}
