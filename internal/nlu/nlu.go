// Package nlu is the narrow boundary to the external intent classifier:
// text in, intent plus parameters plus a default reply out.
package nlu

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic session id
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

const (
	TypeWebhook    = "webhook"
	TypeDialogflow = "dialogflow"
	TypeOpenAI     = "openai"

	// DiseaseParam is the parameter carrying the disease name(s).
	DiseaseParam = "disease-name"
)

// Query is one inbound utterance.
type Query struct {
	Text      string
	SessionID string
}

// Result is the classifier's verdict.
type Result struct {
	Intent     string         `json:"intent"`
	Parameters map[string]any `json:"parameters"`
	Reply      string         `json:"reply"`
}

// Classifier maps free text to an intent.
type Classifier interface {
	Classify(ctx context.Context, q Query) (Result, error)
}

// sessionKey derives a stable, opaque session id from a sender identifier.
func sessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "anonymous"
	}
	sum := sha1.Sum([]byte(id))
	return hex.EncodeToString(sum[:])[:32]
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

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, fmt.Sprintf(format, args...))
}
