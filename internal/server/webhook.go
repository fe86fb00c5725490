package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
	"github.com/Adda-Baaj/arogya-bot/internal/nlu"
	"github.com/Adda-Baaj/arogya-bot/pkg/publishers"
)

const (
	ChannelWebhook  = "webhook"
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"

	maxBodyBytes = 64 << 10
)

// webhookRequest accepts both the NLU platform's fulfillment call and the
// bare {"query": ...} form used by simple relays.
type webhookRequest struct {
	Session     string           `json:"session"`
	QueryResult *nlu.QueryResult `json:"queryResult"`
	Query       string           `json:"query"`
}

type webhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evt := publishers.NewEvent(ChannelWebhook, "")

	var req webhookRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		s.log.WarnObj("malformed webhook request", "webhook_error", map[string]any{
			"error": err.Error(),
		})
		writeJSON(w, http.StatusOK, webhookResponse{FulfillmentText: dispatch.FallbackText})
		return
	}
	evt.SenderHash = publishers.HashSender(req.Session)

	var result nlu.Result
	switch {
	case req.QueryResult != nil:
		evt.Query = req.QueryResult.QueryText
		result = nlu.Result{
			Intent:     req.QueryResult.Intent.DisplayName,
			Parameters: req.QueryResult.Parameters,
			Reply:      req.QueryResult.FulfillmentText,
		}
	case strings.TrimSpace(req.Query) != "" && r.Header.Get(nlu.RelayHeader) != "":
		// The classifier points back at this endpoint.
		s.log.ErrorObj("webhook classifier loop detected", "webhook_error", map[string]any{
			"query": strings.TrimSpace(req.Query),
		})
		writeJSON(w, http.StatusLoopDetected, webhookResponse{FulfillmentText: dispatch.FallbackText})
		return
	case strings.TrimSpace(req.Query) != "":
		evt.Query = strings.TrimSpace(req.Query)
		result, err = s.classifier.Classify(ctx, nlu.Query{Text: evt.Query, SessionID: req.Session})
		if err != nil {
			s.log.WarnObj("classifier unavailable", "nlu_error", map[string]any{
				"channel": ChannelWebhook,
				"error":   err.Error(),
			})
			evt.Outcome = string(dispatch.OutcomeUnavailable)
			evt.Reply = dispatch.FallbackText
			s.publish(evt)
			writeJSON(w, http.StatusOK, webhookResponse{FulfillmentText: evt.Reply})
			return
		}
	}

	reply := s.dispatcher.Handle(ctx, dispatch.Request{Intent: result.Intent, Parameters: result.Parameters})
	evt.Intent = result.Intent
	evt.Disease = reply.Disease
	evt.Outcome = string(reply.Outcome)
	evt.Reply = reply.TextOr(result.Reply, dispatch.FallbackText)
	s.publish(evt)

	writeJSON(w, http.StatusOK, webhookResponse{FulfillmentText: evt.Reply})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeWebhookFallback(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, webhookResponse{FulfillmentText: dispatch.FallbackText})
}
