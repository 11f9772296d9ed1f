package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListOutlines lists cached outlines, newest first.
func (s *Server) handleListOutlines(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "outline store disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := st.ListOutlines(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list outlines: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outlines": recs})
}

func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "outline store disabled", http.StatusServiceUnavailable)
		return
	}
	o, ok, err := st.GetOutline(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		jsonError(w, "failed to load outline: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		jsonError(w, "outline not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDeleteOutline(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "outline store disabled", http.StatusServiceUnavailable)
		return
	}
	deleted, err := st.DeleteOutline(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		jsonError(w, "failed to delete outline: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "outline not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
