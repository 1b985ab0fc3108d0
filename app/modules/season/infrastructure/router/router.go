package seasonrouter

import (
	"context"
	"log/slog"
	"os"

	"github.com/Black-And-White-Club/pitwall/app/eventbus"
	seasonevents "github.com/Black-And-White-Club/pitwall/app/modules/season/events"
	seasonhandlers "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/handlers"
	"github.com/Black-And-White-Club/pitwall/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// SeasonRouter binds season topics to their handlers.
type SeasonRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewSeasonRouter creates a new instance of the router. Router metrics are
// registered on prometheusRegistry unless it is nil or APP_ENV=test.
func NewSeasonRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *SeasonRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "pitwall", "")
		metricsBuilder = &builder
	}

	return &SeasonRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure sets up the middlewares and registers the season event handlers.
func (r *SeasonRouter) Configure(routerCtx context.Context, handlers seasonhandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware for Season")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(routerCtx, handlers)
}

// handlerDeps groups what every registered handler needs.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandler adds one typed handler for topic.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "season." + topic
	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.publisher,
			handler,
		),
	)
}

// RegisterHandlers subscribes the season handlers to their topics.
func (r *SeasonRouter) RegisterHandlers(ctx context.Context, handlers seasonhandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering Season Event Handlers")

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	// MUTATIONS
	registerHandler(deps, seasonevents.RaceSubmittedV1, handlers.HandleRaceSubmitted)
	registerHandler(deps, seasonevents.RestoreRequestedV1, handlers.HandleRestoreRequested)

	return nil
}

// Close shuts down the watermill router.
func (r *SeasonRouter) Close() error {
	return r.Router.Close()
}
