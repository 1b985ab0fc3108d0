// Package observability builds the logger, tracer and metrics registry shared by
// every module.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	seasonmetrics "github.com/Black-And-White-Club/pitwall/app/observability/metrics/season"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects how observability is initialised.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	MetricsAddress string
	LogLevel       slog.Level

	// TempoEndpoint is an OTLP/gRPC collector address. Empty leaves tracing
	// on the global no-op provider.
	TempoEndpoint   string
	TempoInsecure   bool
	TempoSampleRate float64
}

// Provider holds the process logger and tracer provider.
type Provider struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

// Registry holds tracing and metrics handles.
type Registry struct {
	Tracer        trace.Tracer
	SeasonMetrics seasonmetrics.SeasonMetrics
	Prometheus    *prometheus.Registry
}

// Observability bundles everything a module needs to log, trace and count.
type Observability struct {
	Provider Provider
	Registry Registry
	config   Config
	shutdown func(context.Context) error
}

// Init builds production observability: a JSON logger tagged with the service
// and environment, a tracer exporting to Tempo when an endpoint is set, and a
// Prometheus registry. The OTLP provider is installed as the global one.
func Init(ctx context.Context, cfg Config) (Observability, error) {
	obs := initWithWriter(cfg, os.Stdout)

	tp, err := newTracerProvider(ctx, obs.config)
	if err != nil {
		return Observability{}, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
		obs.Provider.TracerProvider = tp
		obs.Registry.Tracer = tp.Tracer(obs.config.ServiceName)
		obs.shutdown = tp.Shutdown
		obs.Provider.Logger.InfoContext(ctx, "Tracing enabled",
			slog.String("endpoint", cfg.TempoEndpoint),
			slog.Float64("sample_rate", cfg.TempoSampleRate),
		)
	}
	return obs, nil
}

// newTracerProvider returns nil when no endpoint is configured. The exporter
// dials lazily, so an unreachable collector does not fail startup.
func newTracerProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if cfg.TempoEndpoint == "" {
		return nil, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TempoEndpoint)}
	if cfg.TempoInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TempoSampleRate))),
	), nil
}

// Shutdown flushes pending spans. It is a no-op when tracing is off.
func (o Observability) Shutdown(ctx context.Context) error {
	if o.shutdown == nil {
		return nil
	}
	return o.shutdown(ctx)
}

func initWithWriter(cfg Config, w io.Writer) Observability {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pitwall"
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel})).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Provider: Provider{Logger: logger, TracerProvider: otel.GetTracerProvider()},
		Registry: Registry{
			Tracer:        otel.Tracer(cfg.ServiceName),
			SeasonMetrics: seasonmetrics.NewPrometheus(reg),
			Prometheus:    reg,
		},
		config: cfg,
	}
}

// NewNoop returns observability that discards logs and metrics. Tests use it.
func NewNoop() Observability {
	tp := noop.NewTracerProvider()
	return Observability{
		Provider: Provider{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), TracerProvider: tp},
		Registry: Registry{
			Tracer:        tp.Tracer("noop"),
			SeasonMetrics: seasonmetrics.NewNoop(),
		},
	}
}

// MetricsHandler exposes the registry, or a 404 handler when metrics are off.
func (o Observability) MetricsHandler() http.Handler {
	if o.Registry.Prometheus == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(o.Registry.Prometheus, promhttp.HandlerOpts{Registry: o.Registry.Prometheus})
}

// ServeMetrics serves /metrics on the configured address until ctx ends. An
// empty address disables the listener.
func (o Observability) ServeMetrics(ctx context.Context) error {
	addr := o.config.MetricsAddress
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	o.Provider.Logger.InfoContext(ctx, "Serving metrics", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
