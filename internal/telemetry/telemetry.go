// Package telemetry wires OpenTelemetry tracing and metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ServiceName identifies this process in exported telemetry.
const ServiceName = "expense-tracker"

const metricInterval = 30 * time.Second

// Providers holds the installed providers. Shutdown flushes and stops them.
type Providers struct {
	MeterProvider metric.MeterProvider
	shutdowns     []func(context.Context) error
}

// Shutdown flushes pending telemetry.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdowns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup installs global tracer and meter providers for the named exporter.
// ExporterNone installs a no-op meter provider and leaves tracing disabled.
func Setup(ctx context.Context, exporter string) (*Providers, error) {
	return setup(ctx, exporter, os.Stderr)
}

func setup(ctx context.Context, exporter string, w io.Writer) (*Providers, error) {
	if exporter == "" || exporter == ExporterNone {
		mp := noop.NewMeterProvider()
		otel.SetMeterProvider(mp)
		return &Providers{MeterProvider: mp}, nil
	}

	spanExporter, metricExporter, err := newExporters(ctx, exporter, w)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return &Providers{
		MeterProvider: mp,
		shutdowns:     []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}, nil
}

func newExporters(ctx context.Context, exporter string, w io.Writer) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	switch exporter {
	case ExporterStdout:
		spans, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}
		return spans, metrics, nil
	case ExporterOTLP:
		// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables.
		spans, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		metrics, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}
		return spans, metrics, nil
	default:
		return nil, nil, fmt.Errorf("unsupported telemetry exporter %q", exporter)
	}
}
