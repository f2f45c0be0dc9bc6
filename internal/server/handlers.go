package server

import (
	"encoding/json"
	"net/http"

	"github.com/andreasrassloff-ai/darkhorse/internal/modules/watchlist"
)

type errorResponse struct {
	Errors []string `json:"errors"`
}

// handleHealth returns service health
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "darkhorse",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleRecommendation analyses the configured price file
// GET /api/recommendation
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	entry := s.fileEntry()

	report, err := s.analyzer.Analyse(r.Context(), entry)
	if err != nil {
		s.log.Warn().Err(err).Str("path", entry.Path).Msg("Recommendation unavailable")
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Errors: []string{watchlist.Describe(entry, err)},
		})
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

// handleWatchlist returns the latest watchlist result, running the
// analysis on demand when none has been produced yet
// GET /api/watchlist
func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.latest.Get(); ok {
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	s.runWatchlist(w, r)
}

// handleTriggerWatchlist runs the watchlist job immediately
// POST /api/jobs/watchlist
func (s *Server) handleTriggerWatchlist(w http.ResponseWriter, r *http.Request) {
	s.log.Info().Msg("Manual watchlist analysis triggered")
	s.runWatchlist(w, r)
}

func (s *Server) runWatchlist(w http.ResponseWriter, r *http.Request) {
	if s.watchlistJob == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Errors: []string{"no watchlist configured"}})
		return
	}

	if err := s.watchlistJob.Run(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Watchlist analysis failed")
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: []string{err.Error()}})
		return
	}

	result, _ := s.latest.Get()
	s.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
