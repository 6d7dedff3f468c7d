// Package di assembles the application container: one explicit struct built
// at startup and passed by reference, with google/wire generating the
// injector.
package di

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"weave-backend/internal/adaptation"
	"weave-backend/internal/agents"
	"weave-backend/internal/config"
	"weave-backend/internal/domain/graph"
	"weave-backend/internal/scoring"
	"weave-backend/internal/service/engine"
	"weave-backend/pkg/observability"
)

// Container holds every long-lived component of the engine
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Store     *graph.Store
	Engine    *scoring.Engine
	Generator *agents.Generator
	Service   *engine.Service
	Loop      *adaptation.Loop
	Router    *chi.Mux
}

// NewContainer assembles the container from its components. Wire generates
// the call chain; see wire_gen.go.
func NewContainer(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
	store *graph.Store,
	scoringEngine *scoring.Engine,
	generator *agents.Generator,
	service *engine.Service,
	loop *adaptation.Loop,
	router *chi.Mux,
) *Container {
	return &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Store:     store,
		Engine:    scoringEngine,
		Generator: generator,
		Service:   service,
		Loop:      loop,
		Router:    router,
	}
}

// Shutdown flushes what can be flushed. The loops are stopped by the caller
// cancelling their context before this runs.
func (c *Container) Shutdown() {
	if err := c.Store.Save(); err != nil {
		c.Logger.Warn("failed to save snapshot on shutdown", zap.Error(err))
	}
	_ = c.Logger.Sync()
}
