// Package api provides the HTTP API layer for the campaign scribe service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"campaign-scribe/internal/character"
	"campaign-scribe/internal/config"
	"campaign-scribe/internal/llm"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
	"campaign-scribe/internal/storage"
	"campaign-scribe/internal/summarize"
)

// Router wires the HTTP routes to the pipelines and the query orchestrator.
type Router struct {
	config  *config.Config
	mux     *chi.Mux
	version string
}

// Deps carries the services the handlers dispatch into.
type Deps struct {
	Pipeline     *summarize.Pipeline
	Cards        *character.Service
	Orchestrator *query.Orchestrator
	Repo         storage.Repository
	Gateway      *llm.Gateway
	Logger       logging.Logger
}

// NewRouter creates an API router with middleware and routes.
func NewRouter(cfg *config.Config, deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = logging.NewNoOpLogger()
	}
	r := &Router{
		config:  cfg,
		mux:     chi.NewRouter(),
		version: "1.0.0",
	}

	r.setupMiddleware(cfg)

	h := &handlers{deps: deps, logger: deps.Logger.WithComponent("api")}
	r.mux.Get("/healthz", h.health)
	r.mux.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/sessions/summarize", h.summarizeSession)
		v1.Post("/characters/extract", h.extractCharacters)
		v1.Post("/query", h.runQuery)
		v1.Get("/campaigns/{campaignID}/sessions/{number}/summary", h.sessionSummary)
	})

	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) setupMiddleware(cfg *config.Config) {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(chimiddleware.RequestID)

	// Summarization holds the request open for the whole pipeline, so the
	// request timeout follows the LLM timeout rather than a few seconds.
	timeout := time.Duration(cfg.LLM.RequestTimeout+30) * time.Second
	r.mux.Use(chimiddleware.Timeout(timeout))

	// Transcripts are large but bounded (10MB).
	r.mux.Use(chimiddleware.RequestSize(10 * 1024 * 1024))

	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}
