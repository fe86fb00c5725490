package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

type fakeResolver struct {
	data  map[domain.Category]map[string][]string
	err   error
	calls []string
}

func (f *fakeResolver) Resolve(_ context.Context, name string, category domain.Category) ([]string, error) {
	f.calls = append(f.calls, string(category)+":"+name)
	if f.err != nil {
		return nil, f.err
	}
	for k, v := range f.data[category] {
		if strings.EqualFold(k, name) {
			return v, nil
		}
	}
	return nil, domain.ErrDataNotFound
}

type fakeLister struct {
	items   []domain.OutbreakItem
	err     error
	filters []string
}

func (f *fakeLister) List(_ context.Context, filter string) ([]domain.OutbreakItem, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.OutbreakItem{}
	for _, it := range f.items {
		if filter == "" || strings.Contains(strings.ToLower(it.Title), strings.ToLower(filter)) {
			out = append(out, it)
		}
	}
	return out, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{data: map[domain.Category]map[string][]string{
		domain.CategorySymptoms: {
			"flu":          {"fever", "cough"},
			"yellow fever": {"fever", "jaundice"},
			"silent":       {},
		},
		domain.CategoryPrevention: {
			"malaria": {"use bed nets", "wear long sleeves"},
		},
	}}
}

func params(v any) map[string]any { return map[string]any{DiseaseParam: v} }

func TestHandleSymptoms(t *testing.T) {
	d := New(newResolver(), nil, nil)

	tests := []struct {
		name    string
		params  map[string]any
		want    string
		outcome Outcome
	}{
		{"list param", params([]any{"FLU"}), "Common symptoms of Flu are: fever, cough.", OutcomeAnswered},
		{"string param", params("flu"), "Common symptoms of Flu are: fever, cough.", OutcomeAnswered},
		{"multi word", params([]any{"", "yellow fever"}), "Common symptoms of Yellow Fever are: fever, jaundice.", OutcomeAnswered},
		{"unknown", params([]any{"zika"}), "I don't have information on the symptoms of Zika.", OutcomeNotFound},
		{"empty field", params("silent"), "I don't have information on the symptoms of Silent.", OutcomeNotFound},
		{"missing", nil, FallbackText, OutcomeNotFound},
		{"empty list", params([]any{}), FallbackText, OutcomeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Handle(context.Background(), Request{Intent: IntentSymptoms, Parameters: tt.params})
			if got.Text != tt.want || got.Outcome != tt.outcome || !got.Handled {
				t.Fatalf("got %+v, want text %q outcome %s", got, tt.want, tt.outcome)
			}
		})
	}
}

func TestHandlePreventions(t *testing.T) {
	d := New(newResolver(), nil, nil)

	got := d.Handle(context.Background(), Request{Intent: IntentPreventions, Parameters: params([]string{"malaria"})})
	if got.Text != "To prevent Malaria, you can: use bed nets, wear long sleeves." {
		t.Fatalf("unexpected reply %q", got.Text)
	}

	got = d.Handle(context.Background(), Request{Intent: IntentPreventions, Parameters: params("flu")})
	if got.Text != "I don't have information on prevention measures for Flu." {
		t.Fatalf("unexpected reply %q", got.Text)
	}
}

func TestHandleNetworkFailure(t *testing.T) {
	r := &fakeResolver{err: fmt.Errorf("load symptoms dataset: %w", domain.ErrNetworkFailure)}
	got := New(r, nil, nil).Handle(context.Background(), Request{Intent: IntentSymptoms, Parameters: params("flu")})
	if got.Text != UnavailableText || got.Outcome != OutcomeUnavailable {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestHandleUnknownIntent(t *testing.T) {
	r := newResolver()
	got := New(r, nil, nil).Handle(context.Background(), Request{Intent: "small_talk", Parameters: params("flu")})
	if got.Handled || got.Outcome != OutcomeUnhandled || got.Text != "" {
		t.Fatalf("unexpected reply %+v", got)
	}
	if len(r.calls) != 0 {
		t.Fatalf("resolver should not be called, got %v", r.calls)
	}

	got = New(r, nil, nil).Handle(context.Background(), Request{Intent: IntentOutbreaks})
	if got.Handled {
		t.Fatalf("outbreaks without a lister must be unhandled: %+v", got)
	}
}

func TestHandleOutbreaks(t *testing.T) {
	day := time.Date(2024, time.May, 30, 0, 0, 0, 0, time.UTC)
	l := &fakeLister{items: []domain.OutbreakItem{
		{Title: "Dengue - Bangladesh", PublishedAt: day, Link: "https://who.example/1"},
		{Title: "Cholera - Sudan", Link: "https://who.example/2"},
	}}
	d := New(newResolver(), l, nil)

	got := d.Handle(context.Background(), Request{Intent: IntentOutbreaks})
	want := "Latest outbreak reports:\n1. Dengue - Bangladesh (30 May 2024) - https://who.example/1\n2. Cholera - Sudan - https://who.example/2"
	if got.Text != want || got.Outcome != OutcomeAnswered {
		t.Fatalf("got %q", got.Text)
	}

	got = d.Handle(context.Background(), Request{Intent: IntentOutbreaks, Parameters: params([]any{"cholera"})})
	if !strings.HasPrefix(got.Text, "Latest outbreak reports on Cholera:\n1. Cholera - Sudan") {
		t.Fatalf("got %q", got.Text)
	}

	got = d.Handle(context.Background(), Request{Intent: IntentOutbreaks, Parameters: params("mpox")})
	if got.Text != "No recent outbreak reports mention Mpox." || got.Outcome != OutcomeEmpty {
		t.Fatalf("got %+v", got)
	}
	if l.filters[len(l.filters)-1] != "mpox" {
		t.Fatalf("filter not forwarded: %v", l.filters)
	}

	empty := New(newResolver(), &fakeLister{}, nil)
	if got := empty.Handle(context.Background(), Request{Intent: IntentOutbreaks}); got.Text != "There are no recent outbreak reports." {
		t.Fatalf("got %q", got.Text)
	}

	down := New(newResolver(), &fakeLister{err: domain.ErrNetworkFailure}, nil)
	if got := down.Handle(context.Background(), Request{Intent: IntentOutbreaks}); got.Text != UnavailableText {
		t.Fatalf("got %q", got.Text)
	}
}

func TestDiseaseName(t *testing.T) {
	tests := []struct {
		in   map[string]any
		want string
	}{
		{nil, ""},
		{params(" flu "), "flu"},
		{params([]any{"", 3, "measles"}), "measles"},
		{params([]string{" ", "mumps"}), "mumps"},
		{params(42), ""},
	}
	for _, tt := range tests {
		if got := DiseaseName(tt.in); got != tt.want {
			t.Errorf("DiseaseName(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReplyTextOr(t *testing.T) {
	handled := Reply{Text: "answer", Handled: true}
	if got := handled.TextOr("agent", "fallback"); got != "answer" {
		t.Fatalf("got %q", got)
	}
	unhandled := Reply{Outcome: OutcomeUnhandled}
	if got := unhandled.TextOr(" agent ", "fallback"); got != "agent" {
		t.Fatalf("got %q", got)
	}
	if got := unhandled.TextOr("", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}

func TestOutbreaksEmptyResultErrorIsNotAnOutage(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("feed: %w", domain.ErrEmptyResult)}
	got := New(newResolver(), lister, nil).Handle(context.Background(), Request{
		Intent:     IntentOutbreaks,
		Parameters: map[string]any{DiseaseParam: "ebola"},
	})
	if got.Text != "No recent outbreak reports mention Ebola." || got.Outcome != OutcomeEmpty {
		t.Fatalf("unexpected reply %+v", got)
	}
}
