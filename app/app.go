package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/pitwall/app/eventbus"
	"github.com/Black-And-White-Club/pitwall/app/modules/season"
	"github.com/Black-And-White-Club/pitwall/app/observability"
	"github.com/Black-And-White-Club/pitwall/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App wires the season module to its transports.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router
	SeasonModule  *season.Module
}

// NewApp initializes the application with the necessary services and
// configuration. Postgres is optional; without a DSN the season runs with no
// archive.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	logger := obs.Provider.Logger

	var db *bun.DB
	if cfg.Postgres.DSN != "" {
		pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
		db = bun.NewDB(pgdb, pgdialect.New())

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.InfoContext(ctx, "Connected to postgres")
	} else {
		logger.WarnContext(ctx, "No postgres DSN configured, season archive disabled")
	}

	var bus eventbus.EventBus
	if cfg.NATS.URL != "" {
		var err error
		bus, err = eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
		if err != nil {
			closeDB(db, logger)
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		logger.WarnContext(ctx, "No NATS URL configured, using in-process event bus")
		bus = eventbus.NewInMemoryEventBus(logger)
	}

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		_ = bus.Close()
		closeDB(db, logger)
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	httpRouter := chi.NewRouter()
	httpRouter.Use(chimiddleware.RequestID)
	httpRouter.Use(chimiddleware.RealIP)
	httpRouter.Use(chimiddleware.Recoverer)
	httpRouter.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	httpRouter.Handle("/metrics", obs.MetricsHandler())

	seasonModule, err := season.NewSeasonModule(ctx, cfg, obs, bus, router, httpRouter, db)
	if err != nil {
		_ = router.Close()
		_ = bus.Close()
		closeDB(db, logger)
		return nil, fmt.Errorf("failed to initialize season module: %w", err)
	}

	return &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		Router:        router,
		HTTPRouter:    httpRouter,
		SeasonModule:  seasonModule,
	}, nil
}

func closeDB(db *bun.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", slog.Any("error", err))
	}
}
