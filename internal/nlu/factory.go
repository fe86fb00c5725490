package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
)

// Options selects and configures a classifier backend.
type Options struct {
	Type       string
	WebhookURL string
	Timeout    time.Duration
	Dialogflow DialogflowConfig
	OpenAI     OpenAIConfig
}

// New builds the classifier named by opts.Type.
func New(ctx context.Context, opts Options) (Classifier, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(opts.Type)) {
	case "", TypeWebhook:
		return NewWebhookClassifier(opts.WebhookURL, httpclient.NewRestyClient(opts.Timeout)), nil
	case TypeDialogflow:
		df := opts.Dialogflow
		df.Timeout = opts.Timeout
		return NewDialogflowClassifier(ctx, df)
	case TypeOpenAI:
		if strings.TrimSpace(opts.OpenAI.APIKey) == "" {
			return nil, fmt.Errorf("openai classifier requires an api key")
		}
		return NewOpenAIClassifier(opts.OpenAI), nil
	default:
		return nil, fmt.Errorf("unsupported nlu type %q", opts.Type)
	}
}
