package workspace

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/session"
)

func (ws *Workspace) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session storage is not configured"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	list, err := ws.store.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (ws *Workspace) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if ws.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session storage is not configured"})
		return
	}

	rec, err := ws.store.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, session.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
