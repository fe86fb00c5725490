// Package server exposes the bot over HTTP: the NLU fulfillment webhook,
// the SMS/WhatsApp relay and a health check.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Adda-Baaj/arogya-bot/internal/datacache"
	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
	"github.com/Adda-Baaj/arogya-bot/internal/nlu"
	"github.com/Adda-Baaj/arogya-bot/pkg/publishers"
)

// IntentHandler answers a classified request.
type IntentHandler interface {
	Handle(ctx context.Context, req dispatch.Request) dispatch.Reply
}

// EventSink receives one event per answered message.
type EventSink interface {
	Go(evt publishers.Event)
}

// CacheStats reports dataset cache counters for /health.
type CacheStats interface {
	Stats() datacache.Stats
}

// Options wires the server's collaborators. Events and Cache are optional.
type Options struct {
	Classifier     nlu.Classifier
	Dispatcher     IntentHandler
	Events         EventSink
	Cache          CacheStats
	Log            logger.Logger
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	classifier nlu.Classifier
	dispatcher IntentHandler
	events     EventSink
	cache      CacheStats
	log        logger.Logger
	timeout    time.Duration
}

// New builds a Server from opts.
func New(opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		classifier: opts.Classifier,
		dispatcher: opts.Dispatcher,
		events:     opts.Events,
		cache:      opts.Cache,
		log:        logger.Ensure(opts.Log),
		timeout:    opts.RequestTimeout,
	}
}

// Routes returns the chi router with middleware and all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.With(recoverWith(s.log, writeWebhookFallback)).Post("/webhook", s.handleWebhook)
	r.Group(func(r chi.Router) {
		r.Use(recoverWith(s.log, writeTwiMLFallback))
		r.Post("/whatsapp", s.handleRelay(ChannelWhatsApp))
		r.Post("/sms", s.handleRelay(ChannelSMS))
	})
	return r
}

// publish hands evt to the event sink when one is configured.
func (s *Server) publish(evt publishers.Event) {
	if s.events != nil {
		s.events.Go(evt)
	}
}
