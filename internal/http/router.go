package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docindex/mcp-server/tools"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Source tools.TableSource
}

// NewRouter creates the read-only delivery router for the served table.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	h := &indexHandler{source: deps.Source}

	r.Get("/search_index.js", h.serveArtifact)
	r.Get("/search_index.json", h.serveJSON)
	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/records", h.listRecords)
		r.Get("/outline", h.outline)
	})

	return r
}
