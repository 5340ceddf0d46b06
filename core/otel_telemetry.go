package core

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// OtelTelemetry implements Telemetry with OpenTelemetry, exporting spans
// to stdout. It is deliberately the simplest exporter this module wires:
// a client library has no always-on collector endpoint to ship traces to,
// unlike the services this stack is normally deployed as part of.
type OtelTelemetry struct {
	tracer   trace.Tracer
	meter    metric.Meter
	provider *sdktrace.TracerProvider

	mu       sync.Mutex
	counters map[string]metric.Float64Counter
}

// NewOtelTelemetry creates a telemetry provider that traces to stdout
// under the given service name.
func NewOtelTelemetry(serviceName string) (*OtelTelemetry, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return &OtelTelemetry{
		tracer:   provider.Tracer(serviceName),
		meter:    otel.GetMeterProvider().Meter(serviceName),
		provider: provider,
		counters: make(map[string]metric.Float64Counter),
	}, nil
}

func (o *OtelTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

func (o *OtelTelemetry) RecordMetric(name string, value float64, labels map[string]string) {
	o.mu.Lock()
	counter, ok := o.counters[name]
	if !ok {
		var err error
		counter, err = o.meter.Float64Counter(name)
		if err != nil {
			o.mu.Unlock()
			return
		}
		o.counters[name] = counter
	}
	o.mu.Unlock()

	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	counter.Add(context.Background(), value, metric.WithAttributes(attrs...))
}

// Shutdown flushes pending spans. Call it when the owning client is torn
// down.
func (o *OtelTelemetry) Shutdown(ctx context.Context) error {
	return o.provider.Shutdown(ctx)
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

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
	s.span.RecordError(err)
}
