package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/service"
	"github.com/natsmesh/natsmesh/internal/storage"
)

// TopologyHandler handles topology document endpoints.
type TopologyHandler struct {
	store  storage.Storage
	engine *service.Engine
	gen    *service.GenerationService
}

// NewTopologyHandler creates a new TopologyHandler.
func NewTopologyHandler(store storage.Storage, engine *service.Engine, gen *service.GenerationService) *TopologyHandler {
	return &TopologyHandler{store: store, engine: engine, gen: gen}
}

// Create stores a new topology document. The document must parse as a
// structurally well-formed topology; full validation happens on demand.
func (h *TopologyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTopologyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Document) == 0 {
		respondError(w, http.StatusBadRequest, "document is required")
		return
	}

	if _, err := domain.ParseDocument(req.Document); err != nil {
		handleError(w, err)
		return
	}

	now := time.Now()
	record := &domain.TopologyRecord{
		ID:        generateID(),
		Name:      req.Name,
		Document:  string(req.Document),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.CreateTopology(r.Context(), record); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// List lists all stored topologies. A name query parameter narrows the
// result to the single topology of that name, 404 when it does not exist.
func (h *TopologyHandler) List(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		record, err := h.store.GetTopologyByName(r.Context(), name)
		if err != nil {
			handleError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, []*domain.TopologyRecord{record})
		return
	}

	records, err := h.store.ListTopologies(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// Get returns a stored topology.
func (h *TopologyHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetTopology(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// Update replaces a stored topology document.
func (h *TopologyHandler) Update(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetTopology(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	var req domain.CreateTopologyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Document) == 0 {
		respondError(w, http.StatusBadRequest, "document is required")
		return
	}
	if _, err := domain.ParseDocument(req.Document); err != nil {
		handleError(w, err)
		return
	}

	if req.Name != "" {
		record.Name = req.Name
	}
	record.Document = string(req.Document)

	if err := h.store.UpdateTopology(r.Context(), record); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// Delete deletes a stored topology.
func (h *TopologyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTopology(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Validate runs full-topology validation against a stored document and
// returns every violation found.
func (h *TopologyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetTopology(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	t, err := domain.ParseDocument([]byte(record.Document))
	if err != nil {
		handleError(w, err)
		return
	}

	if violations := h.engine.Validate(t); violations.HasViolations() {
		respondViolations(w, violations)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// Generate runs the full generation pipeline against a stored topology and
// returns the recorded run.
func (h *TopologyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	run, err := h.gen.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if run.Status != domain.RunStatusSuccess {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, run)
}

// ListRuns lists the generation runs recorded for a stored topology.
func (h *TopologyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetTopology(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	runs, err := h.store.ListRunsForTopology(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, runs)
}
