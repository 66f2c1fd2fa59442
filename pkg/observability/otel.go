package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/matzehuels/zonealloc"

// SetupTracing installs a global OTLP/HTTP tracer provider exporting to
// endpoint. An empty endpoint disables tracing and returns a no-op shutdown.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func SetupTracing(ctx context.Context, serviceName, endpoint string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// TracingHooks records each allocator notification as a short span.
// Span export is batched by the SDK, so calls do not block on the network.
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks uses the global tracer provider.
func NewTracingHooks() *TracingHooks {
	return &TracingHooks{tracer: otel.Tracer(tracerName)}
}

func (h *TracingHooks) record(kind EventKind, attrs map[string]any) {
	_, span := h.tracer.Start(context.Background(), "zonealloc."+string(kind),
		trace.WithAttributes(toAttributes(attrs)...))
	span.End()
}

func (h *TracingHooks) OnPartitionCreated(e PartitionEvent) {
	h.record(KindPartitionCreated, e.attrs())
}

func (h *TracingHooks) OnPartitionRecalculated(e PartitionEvent) {
	h.record(KindPartitionRecalculated, e.attrs())
}

func (h *TracingHooks) OnRebalanceTriggered(e RebalanceEvent) {
	h.record(KindRebalanceTriggered, map[string]any{
		"partition_id":  e.PartitionID,
		"balance_score": e.BalanceScore,
		"occupants":     e.Occupants,
		"tier":          e.Tier,
		"reason":        e.Reason,
	})
}

func (h *TracingHooks) OnOccupantLimitExceeded(e LimitEvent) {
	h.record(KindOccupantLimitExceeded, map[string]any{
		"partition_id": e.PartitionID,
		"occupants":    e.Occupants,
		"limit":        e.Limit,
		"tier":         e.Tier,
	})
}

func (h *TracingHooks) OnConfigFallback(e FallbackEvent) {
	h.record(KindConfigFallback, map[string]any{
		"width":  e.Width,
		"height": e.Height,
		"code":   e.Code,
		"reason": e.Reason,
	})
}

func toAttributes(m map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(m))
	for _, k := range sortedKeys(m) {
		key := "zonealloc." + k
		switch v := m[k].(type) {
		case string:
			out = append(out, attribute.String(key, v))
		case int:
			out = append(out, attribute.Int(key, v))
		case float64:
			out = append(out, attribute.Float64(key, v))
		case bool:
			out = append(out, attribute.Bool(key, v))
		default:
			out = append(out, attribute.String(key, fmt.Sprint(v)))
		}
	}
	return out
}
