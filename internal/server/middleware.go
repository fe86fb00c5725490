package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Adda-Baaj/arogya-bot/internal/logger"
)

// requestLogger logs one structured line per request.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.InfoObj("http request", "http_request", map[string]any{
					"request_id":  middleware.GetReqID(r.Context()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
				})
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// recoverWith turns a handler panic into a well-formed fallback reply so the
// caller (NLU platform or messaging gateway) still gets something to show.
func recoverWith(log logger.Logger, fallback func(http.ResponseWriter)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorObj("handler panic recovered", "http_panic", map[string]any{
					"request_id": middleware.GetReqID(r.Context()),
					"path":       r.URL.Path,
					"panic":      rec,
				})
				fallback(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
