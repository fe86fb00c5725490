package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
)

const (
	dialogflowEndpoint = "https://dialogflow.googleapis.com/v2"
	dialogflowScope    = "https://www.googleapis.com/auth/cloud-platform"
)

// DialogflowConfig configures the detectIntent client.
type DialogflowConfig struct {
	ProjectID       string
	LanguageCode    string
	CredentialsFile string
	Endpoint        string
	Timeout         time.Duration
}

type dialogflowClassifier struct {
	cfg    DialogflowConfig
	client httpclient.Client
}

// NewDialogflowClassifier builds a classifier backed by the Dialogflow ES
// detectIntent REST call, authenticated with Google application credentials.
func NewDialogflowClassifier(ctx context.Context, cfg DialogflowConfig) (Classifier, error) {
	cfg = normalizeDialogflowConfig(cfg)
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("dialogflow project id is required")
	}

	opts := []option.ClientOption{option.WithScopes(dialogflowScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	hc, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialogflow http client: %w", err)
	}

	return newDialogflowClassifier(cfg, httpclient.NewRestyClientWith(hc, cfg.Timeout)), nil
}

func newDialogflowClassifier(cfg DialogflowConfig, client httpclient.Client) *dialogflowClassifier {
	return &dialogflowClassifier{cfg: normalizeDialogflowConfig(cfg), client: client}
}

func normalizeDialogflowConfig(cfg DialogflowConfig) DialogflowConfig {
	cfg.ProjectID = strings.TrimSpace(cfg.ProjectID)
	cfg.LanguageCode = strings.TrimSpace(cfg.LanguageCode)
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en"
	}
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		cfg.Endpoint = dialogflowEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}

type detectIntentRequest struct {
	QueryInput struct {
		Text struct {
			Text         string `json:"text"`
			LanguageCode string `json:"languageCode"`
		} `json:"text"`
	} `json:"queryInput"`
}

type detectIntentResponse struct {
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult is the Dialogflow ES query result, shared with the fulfillment webhook.
type QueryResult struct {
	QueryText       string         `json:"queryText"`
	Parameters      map[string]any `json:"parameters"`
	FulfillmentText string         `json:"fulfillmentText"`
	Intent          struct {
		DisplayName string `json:"displayName"`
	} `json:"intent"`
}

func (d *dialogflowClassifier) Classify(ctx context.Context, q Query) (Result, error) {
	endpoint := fmt.Sprintf("%s/projects/%s/agent/sessions/%s:detectIntent",
		d.cfg.Endpoint, url.PathEscape(d.cfg.ProjectID), sessionKey(q.SessionID))

	var req detectIntentRequest
	req.QueryInput.Text.Text = q.Text
	req.QueryInput.Text.LanguageCode = d.cfg.LanguageCode

	resp, err := d.client.PostJSON(ctx, endpoint, nil, req)
	if err != nil {
		return Result{}, unavailable("dialogflow detectIntent: %v", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return Result{}, unavailable("dialogflow returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var out detectIntentResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Result{}, unavailable("decode dialogflow response: %v", err)
	}
	return Result{
		Intent:     out.QueryResult.Intent.DisplayName,
		Parameters: out.QueryResult.Parameters,
		Reply:      strings.TrimSpace(out.QueryResult.FulfillmentText),
	}, nil
}
