package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/navcore/internal/analytics"
	"github.com/dgallion1/navcore/internal/catalog"
	"github.com/dgallion1/navcore/internal/flatten"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.catalog.List()})
}

func (s *Server) handleFlattenSource(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.flattenConfig(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := chi.URLParam(r, "name")
	c, snap, err := s.catalog.Get(name)
	if errors.Is(err, catalog.ErrNotFound) {
		s.sourceNotFound(w, name, err)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	flat := flattenComponent(c, cfg)
	resp := map[string]any{"source": snap, "flatten": flat}

	q := r.URL.Query()
	if raw := q.Get("position"); raw != "" {
		pos, err := parsePosition(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		node := flatten.Lookup(flat.Nodes, pos)
		if node == nil {
			jsonError(w, fmt.Sprintf("no visible node at position %s", raw), http.StatusNotFound)
			return
		}
		resp["node"] = node
	}
	if active := q.Get("active"); active != "" {
		trail := flatten.ActiveTrail(flat.Nodes, active)
		hrefs := make([]string, 0, len(trail))
		texts := make([]string, 0, len(trail))
		for _, n := range trail {
			hrefs = append(hrefs, n.Page.Href)
			texts = append(texts, n.Page.Text)
		}
		resp["active_trail"] = hrefs
		resp["active_label"] = analytics.CleanArray(texts)
	}
	writeJSON(w, http.StatusOK, resp)
}

// parsePosition reads a dotted index path such as "0.2.1".
func parsePosition(raw string) ([]int, error) {
	parts := strings.Split(raw, ".")
	pos := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid position %q", raw)
		}
		pos = append(pos, n)
	}
	return pos, nil
}

func (s *Server) handleReloadSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	changed, err := s.catalog.Reload(name)
	if errors.Is(err, catalog.ErrNotFound) {
		s.sourceNotFound(w, name, err)
		return
	}
	if err != nil {
		s.log.Error("manual reload failed", "name", name, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	_, snap, _ := s.catalog.Get(name)
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "source": snap})
}

func (s *Server) sourceNotFound(w http.ResponseWriter, name string, err error) {
	body := map[string]string{"error": err.Error()}
	if hint, ok := s.catalog.Suggest(name); ok {
		body["did_you_mean"] = hint
	}
	writeJSON(w, http.StatusNotFound, body)
}

func (s *Server) handleObservers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported": s.pool.Supported(),
		"instances": s.pool.Stats(),
	})
}

func (s *Server) handleAnalyticsFormat(w http.ResponseWriter, r *http.Request) {
	var ev analytics.ComponentEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		jsonError(w, "invalid event: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Track(r.Context(), s.dispatcher, ev))
}
