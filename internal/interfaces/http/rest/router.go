package rest

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"weave-backend/internal/config"
	"weave-backend/internal/service/engine"
	"weave-backend/pkg/observability"
)

// NewRouter builds the full HTTP surface over the service facade
func NewRouter(service *engine.Service, collector *observability.Collector, cfg config.CORS, logger *zap.Logger) *chi.Mux {
	h := NewHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(RequestMetrics(collector))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         cfg.MaxAge,
	}))

	r.Get("/healthz", h.health)
	r.Method("GET", "/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/nodes", h.upsertNode)
		r.Post("/edges", h.addEdge)

		r.Get("/topics/trending", h.trendingTopics)
		r.Get("/topics/popular", h.popularTopics)
		r.Get("/topics", h.topicsByCategory)

		r.Get("/content/trending", h.trendingContent)
		r.Get("/content/{contentId}/similar", h.similarContent)

		r.Get("/users/{userId}/recommendations", h.recommendations)
		r.Get("/users/{userId}/similar", h.similarUsers)
		r.Get("/users/{userId}/feed", h.userFeed)
		r.Post("/users/{userId}/interests/refresh", h.updateInterests)

		r.Get("/users/{userId}/cursor", h.cursorCurrent)
		r.Post("/users/{userId}/cursor/next", h.cursorNext)
		r.Post("/users/{userId}/cursor/previous", h.cursorPrevious)
		r.Get("/users/{userId}/cursor/preview", h.cursorPreview)
		r.Post("/users/{userId}/cursor/filter", h.cursorFilter)

		r.Post("/users/{userId}/viewing/start", h.startViewing)
		r.Post("/users/{userId}/viewing/stop", h.stopViewing)
		r.Post("/users/{userId}/viewing/pause", h.pauseViewing)
		r.Post("/users/{userId}/viewing/resume", h.resumeViewing)

		r.Post("/interactions", h.recordInteraction)
		r.Post("/feedback", h.receiveFeedback)

		r.Post("/agents/generate", h.generateContent)
		r.Post("/agents/generate-batch", h.generateBatch)
		r.Post("/agents/adapt", h.runAdaptation)

		r.Get("/analytics/clusters", h.topicClusters)
		r.Get("/analytics/bridges", h.bridgeNodes)
	})

	return r
}
