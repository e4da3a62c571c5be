// Package telemetry wires up the global OpenTelemetry TracerProvider the
// builder and executor packages emit spans against. Configuration comes from
// the standard OTEL_* environment variables; when OTEL_ENABLED is not "true"
// the global provider stays the default no-op one and every span in the
// process is free.
//
// Typical wiring, done once at process start:
//
//	shutdown, err := telemetry.Init(ctx)
//	if err != nil { ... }
//	defer shutdown(ctx)
package telemetry

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

var (
	cachedConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and tears down the TracerProvider Init installed.
type ShutdownFunc func(ctx context.Context) error

// Init installs a global TracerProvider per the environment configuration
// and returns its shutdown function. When tracing is disabled the returned
// shutdown is a no-op and the global provider is left untouched. Only the
// first call initializes; later calls see the cached config.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := config()
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
		trace.WithSampler(newSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Enabled reports whether tracing is switched on in the environment.
func Enabled() bool {
	return config().Enabled
}

func config() *Config {
	configOnce.Do(func() {
		cachedConfig = FromEnv()
	})
	return cachedConfig
}

// newResource describes this process to the collector: service identity plus
// any operator-supplied attributes, with host.name from the OS hostname.
func newResource(cfg *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		attrs = append(attrs, semconv.HostName(host))
	}
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}
