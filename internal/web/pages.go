package web

import (
	"net/http"

	"github.com/JonMunkholm/beb64/internal/web/templates"
)

// handleIndex renders the single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.IndexPage(templates.IndexParams{
		MaxUploadSize: s.service.MaxUploadSize(),
		DecodeMode:    s.service.DecodeMode().String(),
		RequireKey:    s.cfg.Security.RequireAPIKey,
	})
	if err := page.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleHealth reports liveness and job slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.LimiterStatus(),
	})
}

// handleNotFound answers unknown routes: JSON under /api, an error page
// otherwise.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondErrorStatus(w, r, errPageNotFound, http.StatusNotFound)
}
