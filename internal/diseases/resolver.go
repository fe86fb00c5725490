// Package diseases answers symptom and prevention questions from remote datasets.
package diseases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

// DatasetCache returns a dataset document by URL.
type DatasetCache interface {
	GetOrFetch(ctx context.Context, url string) (json.RawMessage, error)
}

// invalidator is implemented by caches that can drop a single document.
type invalidator interface {
	Invalidate(url string) error
}

// Resolver looks disease names up in the dataset of a category.
type Resolver struct {
	cache   DatasetCache
	sources map[domain.Category]Source
	log     logger.Logger
}

// NewResolver builds a resolver over the given sources. Later entries for the
// same category replace earlier ones.
func NewResolver(cache DatasetCache, sources []Source, log logger.Logger) *Resolver {
	idx := make(map[domain.Category]Source, len(sources))
	for _, src := range sources {
		idx[src.Category] = src
	}
	return &Resolver{cache: cache, sources: idx, log: logger.Ensure(log)}
}

// Resolve returns the category field of the first record whose name equals
// name case-insensitively. It returns nil and domain.ErrDataNotFound when no
// record matches and nil and a wrapped domain.ErrNetworkFailure when the
// dataset is unavailable.
func (r *Resolver) Resolve(ctx context.Context, name string, category domain.Category) ([]string, error) {
	src, ok := r.sources[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty disease name", domain.ErrDataNotFound)
	}

	doc, err := r.cache.GetOrFetch(ctx, src.URL)
	if err != nil {
		r.log.WarnObj("dataset unavailable", "dataset_error", map[string]any{
			"category": string(category),
			"url":      src.URL,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("load %s dataset: %w", category, err)
	}

	records, err := decodeRecords(doc, src.Collection)
	if err != nil {
		r.log.WarnObj("dataset malformed", "dataset_error", map[string]any{
			"category": string(category),
			"url":      src.URL,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%w: %s dataset: %v", domain.ErrNetworkFailure, category, err)
	}

	for _, rec := range records {
		var recName string
		if err := json.Unmarshal(rec["name"], &recName); err != nil {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(recName), name) {
			continue
		}
		return fieldValues(rec[src.Field]), nil
	}

	return nil, fmt.Errorf("%w: %s for %q", domain.ErrDataNotFound, category, name)
}

// Names lists the disease names of a category in dataset order.
func (r *Resolver) Names(ctx context.Context, category domain.Category) ([]string, error) {
	src, ok := r.sources[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}
	doc, err := r.cache.GetOrFetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("load %s dataset: %w", category, err)
	}
	records, err := decodeRecords(doc, src.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %s dataset: %v", domain.ErrNetworkFailure, category, err)
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		var n string
		if err := json.Unmarshal(rec["name"], &n); err == nil && strings.TrimSpace(n) != "" {
			names = append(names, strings.TrimSpace(n))
		}
	}
	return names, nil
}

// Refresh drops the cached dataset of category so the next lookup refetches
// it. Caches without invalidation support are left untouched.
func (r *Resolver) Refresh(category domain.Category) error {
	src, ok := r.sources[category]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCategory, category)
	}
	inv, ok := r.cache.(invalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(src.URL); err != nil {
		return fmt.Errorf("invalidate %s dataset: %w", category, err)
	}
	r.log.InfoObj("dataset invalidated", "dataset_refresh", map[string]any{
		"category": string(category),
		"url":      src.URL,
	})
	return nil
}

func decodeRecords(doc json.RawMessage, collection string) ([]map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	raw, ok := top[collection]
	if !ok {
		// a document without the collection simply has no records
		return nil, nil
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

// fieldValues accepts a list of strings or a single string; anything else is empty.
func fieldValues(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		out = append(out, strings.TrimSpace(single))
	}
	return out
}
