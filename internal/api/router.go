package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/natsmesh/natsmesh/internal/api/handler"
	"github.com/natsmesh/natsmesh/internal/api/middleware"
	"github.com/natsmesh/natsmesh/internal/service"
	"github.com/natsmesh/natsmesh/internal/storage"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(
	store storage.Storage,
	engine *service.Engine,
	gen *service.GenerationService,
	bootstrapKey string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(store, bootstrapKey))

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(store)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys", keyHandler.List)
		r.Delete("/keys/{id}", keyHandler.Delete)

		// Topologies
		topologyHandler := handler.NewTopologyHandler(store, engine, gen)
		r.Post("/topologies", topologyHandler.Create)
		r.Get("/topologies", topologyHandler.List)
		r.Route("/topologies/{id}", func(r chi.Router) {
			r.Get("/", topologyHandler.Get)
			r.Put("/", topologyHandler.Update)
			r.Delete("/", topologyHandler.Delete)
			r.Post("/validate", topologyHandler.Validate)
			r.Post("/generate", topologyHandler.Generate)
			r.Get("/runs", topologyHandler.ListRuns)
		})

		// Generation runs
		runHandler := handler.NewRunHandler(store)
		r.Get("/runs", runHandler.List)
		r.Get("/runs/{id}", runHandler.Get)
	})

	return r
}
