package di

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"go.uber.org/zap"

	"weave-backend/internal/adaptation"
	"weave-backend/internal/agents"
	"weave-backend/internal/config"
	"weave-backend/internal/domain/graph"
	"weave-backend/internal/interfaces/http/rest"
	"weave-backend/internal/scoring"
	"weave-backend/internal/service/engine"
	"weave-backend/pkg/observability"
)

// ProviderSet is the full provider graph for the engine
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideCollector,
	ProvideStore,
	ProvideScoringEngine,
	ProvideGenerator,
	ProvideService,
	ProvideLoop,
	ProvideRouter,
	NewContainer,
)

// ProvideLogger builds the zap logger for the configured environment
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == config.Production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideCollector builds the Prometheus collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideStore loads or seeds the graph store
func ProvideStore(cfg *config.Config, logger *zap.Logger) (*graph.Store, error) {
	return graph.NewStore(cfg.Graph.SnapshotPath, logger)
}

// ProvideScoringEngine builds the scoring engine over the store
func ProvideScoringEngine(store *graph.Store, logger *zap.Logger) *scoring.Engine {
	return scoring.NewEngine(store, logger)
}

// ProvideGenerator builds the agent pool with the three default archetypes.
// No synthesizer is attached here; agents fall back to their templates. A
// vendor synthesis port can be wired per deployment.
func ProvideGenerator(cfg *config.Config, store *graph.Store, logger *zap.Logger) (*agents.Generator, error) {
	seed := cfg.Agents.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	generator := agents.NewGenerator(store, logger, seed)
	pool := []agents.Agent{
		agents.NewTrendSpotter(nil, seed+1),
		agents.NewDeepDive(nil, seed+2),
		agents.NewEntertainer(nil, seed+3),
	}
	for _, agent := range pool {
		if err := generator.AddAgent(agent); err != nil {
			return nil, err
		}
	}
	return generator, nil
}

// ProvideService builds the facade
func ProvideService(store *graph.Store, scoringEngine *scoring.Engine, generator *agents.Generator, metrics *observability.Collector, logger *zap.Logger) *engine.Service {
	return engine.NewService(store, scoringEngine, generator, metrics, logger)
}

// ProvideLoop builds the background adaptation/interaction loop driver
func ProvideLoop(cfg *config.Config, store *graph.Store, generator *agents.Generator, logger *zap.Logger) *adaptation.Loop {
	return adaptation.NewLoop(store, generator, cfg.Agents.AdaptInterval, cfg.Agents.InteractInterval, logger)
}

// ProvideRouter builds the REST surface
func ProvideRouter(service *engine.Service, metrics *observability.Collector, cfg *config.Config, logger *zap.Logger) *chi.Mux {
	return rest.NewRouter(service, metrics, cfg.CORS, logger)
}
