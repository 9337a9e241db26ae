// Package telemetry provides process-wide OpenTelemetry meter and tracer
// accessors. Instruments are obtained from the globally-registered
// MeterProvider/TracerProvider, so callers work unmodified whether or not
// the process wires up a real OTel SDK exporter (the no-op providers are
// used by default).
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Meter returns a named meter from the global MeterProvider.
func Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// Tracer returns a named tracer from the global TracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}
