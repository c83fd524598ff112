// Package telemetry provides the OpenTelemetry integration for the SDK:
// a tracer provider wired to an OTLP gRPC collector (or stdout during
// development) and a core.Telemetry implementation the request pipeline
// uses for per-request spans.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockease/client-go/core"
)

const instrumentationName = "github.com/stockease/client-go"

// Provider owns the configured tracer provider and implements
// core.Telemetry for the request pipeline.
type Provider struct {
	traceProvider *sdktrace.TracerProvider
	tracer        trace.Tracer
	meter         metric.Meter
}

// Init configures tracing from the telemetry section of the SDK config.
// With an endpoint set, spans export over OTLP gRPC; without one they go to
// stdout, which is the development setup. The returned Provider must be
// shut down to flush pending spans.
func Init(cfg core.TelemetryConfig, version string) (*Provider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTEL resource: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Provider{
		traceProvider: traceProvider,
		tracer:        traceProvider.Tracer(instrumentationName),
		meter:         otel.Meter(instrumentationName),
	}, nil
}

func newExporter(cfg core.TelemetryConfig) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exporter, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// Shutdown flushes and stops the tracer provider
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.traceProvider == nil {
		return nil
	}
	return p.traceProvider.Shutdown(ctx)
}

// StartSpan begins a span named after the SDK operation
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric records a counter increment through the global meter.
// Without an installed meter provider this is a no-op, matching the
// "telemetry is optional" contract.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	counter, err := p.meter.Float64Counter(name)
	if err != nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	counter.Add(context.Background(), value, metric.WithAttributes(attrs...))
}

// otelSpan adapts an otel span to core.Span
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

var _ core.Telemetry = (*Provider)(nil)
