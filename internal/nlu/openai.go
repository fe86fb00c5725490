package nlu

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const classifyPrompt = `You route messages for a public-health chatbot.
Classify the user's message into exactly one intent:
- ask_symptoms: the user asks about symptoms of a disease
- ask_preventions: the user asks how to prevent a disease
- outbreak_news: the user asks about current outbreaks or health alerts
- fallback: anything else
Extract the disease name if one is mentioned, in its common English name.
For fallback, write a short, friendly reply that says what you can help with.
Answer with a JSON object only: {"intent": "...", "disease": "...", "reply": "..."}`

// OpenAIConfig configures the LLM classifier.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type openAIClassifier struct {
	client *openai.Client
	model  string
}

// NewOpenAIClassifier builds a classifier that asks a chat model for a JSON verdict.
func NewOpenAIClassifier(cfg OpenAIConfig) Classifier {
	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAIClassifier{client: openai.NewClientWithConfig(oc), model: model}
}

type openAIVerdict struct {
	Intent  string `json:"intent"`
	Disease string `json:"disease"`
	Reply   string `json:"reply"`
}

func (o *openAIClassifier) Classify(ctx context.Context, q Query) (Result, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
			{Role: openai.ChatMessageRoleUser, Content: q.Text},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Result{}, unavailable("openai chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, unavailable("openai returned no choices")
	}

	var v openAIVerdict
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return Result{}, unavailable("decode openai verdict: %v", err)
	}

	res := Result{
		Intent: strings.TrimSpace(v.Intent),
		Reply:  strings.TrimSpace(v.Reply),
	}
	if d := strings.TrimSpace(v.Disease); d != "" {
		res.Parameters = map[string]any{DiseaseParam: []any{d}}
	}
	return res, nil
}
