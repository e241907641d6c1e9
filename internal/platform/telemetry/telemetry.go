// internal/platform/telemetry/telemetry.go

// Package telemetry configures OpenTelemetry tracing and the shared workflow
// outcome counter.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"booknest/internal/result"
)

// Setup installs a global tracer provider exporting over OTLP/HTTP. With an
// empty endpoint it is a no-op and the global no-op provider stays in place.
// The returned function flushes and stops the exporter.
func Setup(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

var (
	outcomesOnce sync.Once
	outcomes     metric.Int64Counter
)

func outcomeCounter() metric.Int64Counter {
	outcomesOnce.Do(func() {
		c, err := otel.Meter("booknest/workflow").Int64Counter(
			"booknest.workflow.outcomes",
			metric.WithDescription("Workflow calls by operation and result kind"),
		)
		if err != nil {
			otel.Handle(err)
			return
		}
		outcomes = c
	})
	return outcomes
}

// End finishes a workflow span, recording err on it and counting the outcome.
func End(ctx context.Context, span trace.Span, operation string, err error) {
	kind := "ok"
	if err != nil {
		kind = string(result.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("outcome", kind))
	span.End()

	if c := outcomeCounter(); c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", kind),
		))
	}
}
