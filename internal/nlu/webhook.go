package nlu

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
)

// RelayHeader marks a request sent by a webhook classifier. A bot receiving
// it on its own fulfillment endpoint must not classify the query again.
const RelayHeader = "X-Arogya-Relay"

// webhookClassifier posts {"query": ...} to an agent endpoint and reads its
// fulfillment response.
type webhookClassifier struct {
	url    string
	client httpclient.Client
}

// NewWebhookClassifier builds a classifier for a JSON agent endpoint.
func NewWebhookClassifier(url string, client httpclient.Client) Classifier {
	return &webhookClassifier{url: strings.TrimSpace(url), client: client}
}

type webhookRequest struct {
	Query   string `json:"query"`
	Session string `json:"session,omitempty"`
}

type webhookResponse struct {
	FulfillmentText string         `json:"fulfillmentText"`
	Intent          string         `json:"intent"`
	Parameters      map[string]any `json:"parameters"`
}

func (w *webhookClassifier) Classify(ctx context.Context, q Query) (Result, error) {
	if w.url == "" {
		return Result{}, unavailable("nlu webhook url is not configured")
	}

	resp, err := w.client.PostJSON(ctx, w.url, map[string]string{RelayHeader: "1"}, webhookRequest{
		Query:   q.Text,
		Session: sessionKey(q.SessionID),
	})
	if err != nil {
		return Result{}, unavailable("post %s: %v", w.url, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return Result{}, unavailable("%s returned status %d body: %s", w.url, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var out webhookResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Result{}, unavailable("decode %s response: %v", w.url, err)
	}
	return Result{
		Intent:     strings.TrimSpace(out.Intent),
		Parameters: out.Parameters,
		Reply:      strings.TrimSpace(out.FulfillmentText),
	}, nil
}
