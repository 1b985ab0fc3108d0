package season

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	seasonservice "github.com/Black-And-White-Club/pitwall/app/modules/season/application"
	seasonhandlers "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/handlers"
	seasonhttp "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/httpapi"
	seasondb "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories"
	seasonrouter "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/router"
	"github.com/Black-And-White-Club/pitwall/app/eventbus"
	"github.com/Black-And-White-Club/pitwall/app/observability"
	"github.com/Black-And-White-Club/pitwall/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the season module.
type Module struct {
	Service      seasonservice.Service
	SeasonRouter *seasonrouter.SeasonRouter
	config       *config.Config
	logger       *slog.Logger
	cancelFunc   context.CancelFunc
}

// NewSeasonModule builds the season service from cfg, restores the latest
// archived season when a database is present, and registers the event and
// HTTP surfaces. db and httpRouter may be nil.
func NewSeasonModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "Initializing season module",
		slog.String("roster", cfg.Season.Roster),
		slog.String("rules", cfg.Season.Rules),
	)

	roster, rules, err := seasonservice.BuildSeason(cfg.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to build season rules: %w", err)
	}

	var repo seasondb.Repository
	if db != nil {
		repo = seasondb.NewRepository(db)
	}

	service, err := seasonservice.NewSeasonService(roster, rules, repo, logger, obs.Registry.SeasonMetrics, tracer, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create season service: %w", err)
	}
	if err := service.LoadLatest(ctx); err != nil {
		return nil, fmt.Errorf("failed to load archived season: %w", err)
	}

	handlers := seasonhandlers.NewSeasonHandlers(service, logger, tracer)
	seasonRouter := seasonrouter.NewSeasonRouter(logger, router, eventBus, eventBus, tracer, obs.Registry.Prometheus)
	if err := seasonRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure season router: %w", err)
	}

	if httpRouter != nil {
		var limiter *seasonhttp.ClientRateLimiter
		if cfg.HTTP.RateLimit > 0 {
			limiter = seasonhttp.NewClientRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
		}
		seasonhttp.RegisterRoutes(httpRouter, seasonhttp.NewSeasonHTTPHandlers(service, logger, tracer), limiter)
	}

	logger.InfoContext(ctx, "Season module ready",
		slog.String("rules_version", rules.Version),
		slog.Bool("archive", repo != nil),
	)

	return &Module{
		Service:      service,
		SeasonRouter: seasonRouter,
		config:       cfg,
		logger:       logger,
	}, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting season module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Season module goroutine stopped")
}

// Close stops the season module.
func (m *Module) Close() error {
	m.logger.Info("Stopping season module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.SeasonRouter != nil {
		if err := m.SeasonRouter.Close(); err != nil {
			return fmt.Errorf("failed to close season router: %w", err)
		}
	}

	m.logger.Info("Season module stopped")
	return nil
}
