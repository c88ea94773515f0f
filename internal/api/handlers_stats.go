package api

import (
	"net/http"
)

func (s *Server) handleReloadStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"window": s.cfg.ReloadStatsWindow.String(),
		"stats":  s.catalog.Stats(),
	})
}
