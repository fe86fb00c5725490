package server

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
	"github.com/Adda-Baaj/arogya-bot/internal/nlu"
	"github.com/Adda-Baaj/arogya-bot/pkg/publishers"
)

// twimlResponse is the messaging gateway's reply envelope.
type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// handleRelay serves the messaging gateway's form-encoded inbound webhook.
func (s *Server) handleRelay(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			s.log.WarnObj("malformed relay request", "relay_error", map[string]any{
				"channel": channel,
				"error":   err.Error(),
			})
			writeTwiML(w, dispatch.FallbackText)
			return
		}

		text := strings.TrimSpace(r.PostForm.Get("Body"))
		from := strings.TrimSpace(r.PostForm.Get("From"))

		evt := publishers.NewEvent(channel, from)
		evt.Query = text
		evt.Reply, evt.Intent, evt.Disease, evt.Outcome = s.converse(r.Context(), channel, from, text)
		s.publish(evt)

		writeTwiML(w, evt.Reply)
	}
}

// converse classifies and answers one relayed message.
func (s *Server) converse(ctx context.Context, channel, from, text string) (reply, intent, disease, outcome string) {
	if text == "" {
		return dispatch.GreetingText, "", "", "greeting"
	}

	res, err := s.classifier.Classify(ctx, nlu.Query{Text: text, SessionID: from})
	if err != nil {
		s.log.WarnObj("classifier unavailable", "nlu_error", map[string]any{
			"channel": channel,
			"error":   err.Error(),
		})
		return dispatch.FallbackText, "", "", string(dispatch.OutcomeUnavailable)
	}

	out := s.dispatcher.Handle(ctx, dispatch.Request{Intent: res.Intent, Parameters: res.Parameters})
	return out.TextOr(res.Reply, dispatch.NotUnderstoodText), res.Intent, out.Disease, string(out.Outcome)
}

func writeTwiML(w http.ResponseWriter, message string) {
	body, err := xml.Marshal(twimlResponse{Messages: []string{message}})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

func writeTwiMLFallback(w http.ResponseWriter) {
	writeTwiML(w, dispatch.FallbackText)
}
