package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/natsmesh/natsmesh/internal/storage"
)

// RunHandler handles generation run endpoints.
type RunHandler struct {
	store storage.Storage
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(store storage.Storage) *RunHandler {
	return &RunHandler{store: store}
}

// List lists recent generation runs across all topologies.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	runs, err := h.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

// Get returns one generation run with its recorded artifacts.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}
