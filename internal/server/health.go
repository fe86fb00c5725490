package server

import (
	"net/http"

	"github.com/Adda-Baaj/arogya-bot/internal/datacache"
)

type healthResponse struct {
	Status string           `json:"status"`
	Cache  *datacache.Stats `json:"cache,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.cache != nil {
		st := s.cache.Stats()
		resp.Cache = &st
	}
	writeJSON(w, http.StatusOK, resp)
}
