package core

import "context"

// Telemetry is the optional tracing/metrics hook the retry orchestration
// loop and endpoint manager call into. It is an optional module: every
// caller is expected to work correctly against NoOpTelemetry.
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a single traced unit of work, e.g. one retry attempt.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// NoOpTelemetry discards everything. It is the default.
type NoOpTelemetry struct{}

func (NoOpTelemetry) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noOpSpan{}
}
func (NoOpTelemetry) RecordMetric(string, float64, map[string]string) {}

type noOpSpan struct{}

func (noOpSpan) End()                               {}
func (noOpSpan) SetAttribute(string, interface{})   {}
func (noOpSpan) RecordError(error)                  {}
