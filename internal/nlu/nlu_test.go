package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
)

func TestWebhookClassifierReadsFulfillment(t *testing.T) {
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get(RelayHeader) == "" {
			t.Errorf("missing %s header", RelayHeader)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fulfillmentText":" Here you go ","intent":"ask_symptoms","parameters":{"disease-name":["flu"]}}`))
	}))
	defer srv.Close()

	c := NewWebhookClassifier(srv.URL, httpclient.NewRestyClient(2*time.Second))
	res, err := c.Classify(context.Background(), Query{Text: "what are flu symptoms", SessionID: "whatsapp:+100"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Query != "what are flu symptoms" {
		t.Fatalf("query sent = %q", got.Query)
	}
	if got.Session == "" || strings.Contains(got.Session, "+100") {
		t.Fatalf("session should be an opaque key, got %q", got.Session)
	}
	if res.Intent != "ask_symptoms" || res.Reply != "Here you go" {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := res.Parameters[DiseaseParam]; !ok {
		t.Fatalf("missing disease parameter: %+v", res.Parameters)
	}
}

func TestWebhookClassifierFailuresAreUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()

	client := httpclient.NewRestyClient(2 * time.Second)
	for _, url := range []string{srv.URL + "/down", srv.URL + "/garbled", ""} {
		_, err := NewWebhookClassifier(url, client).Classify(context.Background(), Query{Text: "hi"})
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("url %q: expected ErrUpstreamUnavailable, got %v", url, err)
		}
	}
}

func TestDialogflowClassifierDetectIntent(t *testing.T) {
	var path string
	var req detectIntentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"queryResult":{"queryText":"how to prevent malaria","parameters":{"disease-name":"malaria"},"fulfillmentText":"ok","intent":{"displayName":"ask_preventions"}}}`))
	}))
	defer srv.Close()

	c := newDialogflowClassifier(DialogflowConfig{ProjectID: "demo", Endpoint: srv.URL + "/v2/"}, httpclient.NewRestyClient(2*time.Second))
	res, err := c.Classify(context.Background(), Query{Text: "how to prevent malaria", SessionID: "sms:+1"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !strings.HasPrefix(path, "/v2/projects/demo/agent/sessions/") || !strings.HasSuffix(path, ":detectIntent") {
		t.Fatalf("unexpected path %q", path)
	}
	if req.QueryInput.Text.Text != "how to prevent malaria" || req.QueryInput.Text.LanguageCode != "en" {
		t.Fatalf("unexpected request %+v", req)
	}
	if res.Intent != "ask_preventions" || res.Parameters[DiseaseParam] != "malaria" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDialogflowClassifierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := newDialogflowClassifier(DialogflowConfig{ProjectID: "demo", Endpoint: srv.URL}, httpclient.NewRestyClient(2*time.Second))
	if _, err := c.Classify(context.Background(), Query{Text: "x"}); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestOpenAIClassifierParsesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant",
				"content": "{\"intent\":\"ask_symptoms\",\"disease\":\"Dengue\",\"reply\":\"\"}"}}]
		}`))
	}))
	defer srv.Close()

	c := NewOpenAIClassifier(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	res, err := c.Classify(context.Background(), Query{Text: "dengue symptoms?"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Intent != "ask_symptoms" {
		t.Fatalf("intent = %q", res.Intent)
	}
	names, ok := res.Parameters[DiseaseParam].([]any)
	if !ok || len(names) != 1 || names[0] != "Dengue" {
		t.Fatalf("unexpected parameters %+v", res.Parameters)
	}
}

func TestOpenAIClassifierFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClassifier(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	if _, err := c.Classify(context.Background(), Query{Text: "x"}); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	if _, err := New(context.Background(), Options{Type: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := New(context.Background(), Options{Type: TypeOpenAI}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	c, err := New(context.Background(), Options{Type: " Webhook ", WebhookURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(*webhookClassifier); !ok {
		t.Fatalf("expected webhook classifier, got %T", c)
	}
}

func TestSessionKeyIsStable(t *testing.T) {
	a, b := sessionKey("whatsapp:+1"), sessionKey(" whatsapp:+1 ")
	if a != b || len(a) != 32 {
		t.Fatalf("sessionKey not stable: %q %q", a, b)
	}
	if sessionKey("") == a {
		t.Fatalf("anonymous key collides")
	}
}
