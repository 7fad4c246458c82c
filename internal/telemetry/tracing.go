// Package telemetry installs the process-wide OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const (
	ExporterNone = "none"
	ExporterOTLP = "otlp"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter is "none" (spans only feed log correlation) or "otlp".
	Exporter     string
	OTLPEndpoint string // host:port of an OTLP/HTTP collector, empty uses the exporter default
	OTLPInsecure bool

	SampleRatio float64 // 0 means sample everything
}

// SetupTracing builds a tracer provider for cfg and installs it, together with
// the W3C trace context and baggage propagators, as the global one. The
// returned provider must be shut down to flush buffered spans.
func SetupTracing(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}

	switch cfg.Exporter {
	case "", ExporterNone:
	case ExporterOTLP:
		var httpOpts []otlptracehttp.Option
		if cfg.OTLPEndpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}
