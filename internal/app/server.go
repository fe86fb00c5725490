package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/config"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
	"github.com/Adda-Baaj/arogya-bot/internal/server"
)

const shutdownTimeout = 10 * time.Second

// errHandlersInFlight reports a shutdown that timed out with requests still
// being served. The bot's resources are left open for them.
var errHandlersInFlight = errors.New("handlers still in flight")

// Server is the webhook server runtime.
type Server struct {
	bot             *Bot
	http            *http.Server
	log             logger.Logger
	shutdownTimeout time.Duration
}

// NewServer builds the bot and mounts its HTTP routes.
func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	log = logger.Ensure(log)
	bot, err := NewBot(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	routes := server.New(server.Options{
		Classifier: bot.Classifier,
		Dispatcher: bot.Dispatcher,
		Events:     bot.Events,
		Cache:      bot.Cache,
		Log:        log,
	}).Routes()

	return &Server{
		bot: bot,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           routes,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      45 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully and releases
// the bot's resources.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.bot == nil {
		return fmt.Errorf("server is not initialized")
	}
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		s.closeBot()
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.serve(ctx, ln)
}

// serve runs the HTTP server on ln and closes the bot once no handler can
// reach it any more.
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.log.InfoObj("http server listening", "server_state", map[string]any{
		"addr":       ln.Addr().String(),
		"publishers": s.bot.Events.Size(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return s.stop(err)
	case <-ctx.Done():
	}

	s.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	return s.stop(nil)
}

// stop drains the HTTP server and releases the bot. When draining times out
// the bot stays open: handlers may still publish events or read the cache.
func (s *Server) stop(serveErr error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		_ = s.http.Close()
		s.log.ErrorObj("http shutdown timed out, leaving bot open", "error", err.Error())
		return fmt.Errorf("http shutdown: %w: %v", errHandlersInFlight, err)
	}
	s.closeBot()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", serveErr)
	}
	return nil
}

func (s *Server) closeBot() {
	if err := s.bot.Close(); err != nil {
		s.log.ErrorObj("shutdown cleanup failed", "error", err.Error())
	}
}
