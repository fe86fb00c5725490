// Package dispatch maps a classified intent onto the resolvers and formats
// the natural-language reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

const (
	IntentSymptoms    = "ask_symptoms"
	IntentPreventions = "ask_preventions"
	IntentOutbreaks   = "outbreak_news"

	// DiseaseParam is the intent parameter carrying the disease name(s).
	DiseaseParam = "disease-name"
)

// Fixed user-facing texts.
const (
	FallbackText      = "I'm sorry, I couldn't find that information. Please try again."
	UnavailableText   = "I'm unable to fetch data right now. Please try again later."
	NotUnderstoodText = "Sorry, I didn't get that."
	GreetingText      = "Hi! Ask me about the symptoms or prevention of a disease, for example \"symptoms of malaria\", or ask for the latest outbreak news."
)

// Outcome classifies how a request was answered.
type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeEmpty       Outcome = "empty"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeUnhandled   Outcome = "unhandled"
)

// Request is a classified inbound message.
type Request struct {
	Intent     string
	Parameters map[string]any
}

// Reply is the dispatcher's answer. Handled is false for intents the
// dispatcher does not own; callers then use the classifier's own reply.
type Reply struct {
	Text    string
	Handled bool
	Outcome Outcome
	Disease string
}

// TextOr returns r.Text for handled requests, otherwise the classifier's own
// reply, otherwise fallback.
func (r Reply) TextOr(nluReply, fallback string) string {
	if r.Handled {
		return r.Text
	}
	if t := strings.TrimSpace(nluReply); t != "" {
		return t
	}
	return fallback
}

// InfoResolver looks up a disease in a category dataset.
type InfoResolver interface {
	Resolve(ctx context.Context, name string, category domain.Category) ([]string, error)
}

// OutbreakLister lists recent outbreak items, optionally filtered by title.
// No matches may be reported as an empty slice or as domain.ErrEmptyResult.
type OutbreakLister interface {
	List(ctx context.Context, filter string) ([]domain.OutbreakItem, error)
}

// Dispatcher routes intents to the resolvers.
type Dispatcher struct {
	info      InfoResolver
	outbreaks OutbreakLister
	log       logger.Logger
}

// New builds a dispatcher. outbreaks may be nil, in which case outbreak
// questions are left unhandled.
func New(info InfoResolver, outbreaks OutbreakLister, log logger.Logger) *Dispatcher {
	return &Dispatcher{info: info, outbreaks: outbreaks, log: logger.Ensure(log)}
}

// Handle answers req. It never returns an error: every failure is turned
// into one of the fixed texts and reported through Reply.Outcome.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Reply {
	disease := DiseaseName(req.Parameters)

	switch strings.TrimSpace(req.Intent) {
	case IntentSymptoms:
		return d.answerInfo(ctx, disease, domain.CategorySymptoms)
	case IntentPreventions:
		return d.answerInfo(ctx, disease, domain.CategoryPrevention)
	case IntentOutbreaks:
		if d.outbreaks == nil {
			return Reply{Outcome: OutcomeUnhandled, Disease: disease}
		}
		return d.answerOutbreaks(ctx, disease)
	default:
		return Reply{Outcome: OutcomeUnhandled, Disease: disease}
	}
}

func (d *Dispatcher) answerInfo(ctx context.Context, disease string, category domain.Category) Reply {
	if disease == "" {
		return Reply{Text: FallbackText, Handled: true, Outcome: OutcomeNotFound}
	}

	values, err := d.info.Resolve(ctx, disease, category)
	switch {
	case err == nil && len(values) > 0:
		return Reply{Text: foundText(category, disease, values), Handled: true, Outcome: OutcomeAnswered, Disease: disease}
	case err == nil, errors.Is(err, domain.ErrDataNotFound):
		return Reply{Text: missingText(category, disease), Handled: true, Outcome: OutcomeNotFound, Disease: disease}
	case errors.Is(err, domain.ErrNetworkFailure):
		d.log.WarnObj("disease lookup unavailable", "dispatch_error", map[string]any{
			"category": string(category),
			"disease":  disease,
			"error":    err.Error(),
		})
		return Reply{Text: UnavailableText, Handled: true, Outcome: OutcomeUnavailable, Disease: disease}
	default:
		d.log.ErrorObj("disease lookup failed", "dispatch_error", map[string]any{
			"category": string(category),
			"disease":  disease,
			"error":    err.Error(),
		})
		return Reply{Text: FallbackText, Handled: true, Outcome: OutcomeNotFound, Disease: disease}
	}
}

func (d *Dispatcher) answerOutbreaks(ctx context.Context, disease string) Reply {
	items, err := d.outbreaks.List(ctx, disease)
	if errors.Is(err, domain.ErrEmptyResult) {
		items, err = nil, nil
	}
	if err != nil {
		d.log.WarnObj("outbreak feed unavailable", "dispatch_error", map[string]any{
			"filter": disease,
			"error":  err.Error(),
		})
		return Reply{Text: UnavailableText, Handled: true, Outcome: OutcomeUnavailable, Disease: disease}
	}

	if len(items) == 0 {
		text := "There are no recent outbreak reports."
		if disease != "" {
			text = fmt.Sprintf("No recent outbreak reports mention %s.", titleCase(disease))
		}
		return Reply{Text: text, Handled: true, Outcome: OutcomeEmpty, Disease: disease}
	}

	var b strings.Builder
	if disease != "" {
		fmt.Fprintf(&b, "Latest outbreak reports on %s:", titleCase(disease))
	} else {
		b.WriteString("Latest outbreak reports:")
	}
	for i, it := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, it.DisplayLine())
	}
	return Reply{Text: b.String(), Handled: true, Outcome: OutcomeAnswered, Disease: disease}
}

func foundText(category domain.Category, disease string, values []string) string {
	joined := strings.Join(values, ", ")
	if category == domain.CategoryPrevention {
		return fmt.Sprintf("To prevent %s, you can: %s.", titleCase(disease), joined)
	}
	return fmt.Sprintf("Common symptoms of %s are: %s.", titleCase(disease), joined)
}

func missingText(category domain.Category, disease string) string {
	if category == domain.CategoryPrevention {
		return fmt.Sprintf("I don't have information on prevention measures for %s.", titleCase(disease))
	}
	return fmt.Sprintf("I don't have information on the symptoms of %s.", titleCase(disease))
}

// titleCase upper-cases the first letter of every word. A Caser carries
// state, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// DiseaseName extracts the disease from intent parameters. The value may be
// a string or a list; for a list the first non-empty string wins.
func DiseaseName(params map[string]any) string {
	switch v := params[DiseaseParam].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
