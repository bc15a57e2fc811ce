// Package telemetry bootstraps an optional OpenTelemetry tracer for the
// pipeline's stage workers. Tracing is ambient observability, never a
// correctness requirement: when OTEL_EXPORTER_OTLP_ENDPOINT is unset,
// InitTracer is skipped and callers use the global no-op tracer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer bootstraps a TracerProvider with an OTLP/gRPC span exporter
// targeting endpoint (e.g. "otel-collector:4317"). Callers must defer
// tp.Shutdown(ctx) to flush pending spans.
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("otlptracegrpc: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// Tracer returns a named tracer from the process-global TracerProvider —
// the no-op provider until InitTracer has run.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
