// Package telemetry sets up OpenTelemetry tracing. Spans are written as
// JSON lines to a local file; there is no collector.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vastram/internal/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const defaultServiceName = "vastram"

// Options configures tracing.
type Options struct {
	Enabled     bool
	Path        string // span output file
	ServiceName string
	Version     string
	Component   string // e.g. "cli", "mock-server"

	// Sync exports every span as it ends; used by tests and short commands.
	Sync bool
}

// ShutdownFunc flushes pending spans and releases the output file.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init installs a global tracer provider. When tracing is disabled the
// default no-op provider stays in place and the returned shutdown does nothing.
func Init(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		return noopShutdown, nil
	}
	if opts.Path == "" {
		return noopShutdown, errors.New("telemetry: trace file path required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return noopShutdown, fmt.Errorf("telemetry: create trace dir: %w", err)
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return noopShutdown, fmt.Errorf("telemetry: open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return noopShutdown, fmt.Errorf("telemetry: exporter: %w", err)
	}

	serviceName := strings.TrimSpace(opts.ServiceName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(opts.Version)),
			attribute.String("service.component", opts.Component),
		),
	)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("otel resource init failed (continuing): %v", err)
	}

	var export sdktrace.TracerProviderOption
	if opts.Sync {
		export = sdktrace.WithSyncer(exporter)
	} else {
		export = sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(2*time.Second))
	}
	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logging.Boot("otel tracing initialized: service=%s file=%s", serviceName, opts.Path)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}
