package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) (SpanManager, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return NewSpanManagerWithTracer(tp.Tracer("litegraph-test")), exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// TestStartStepSpan verifies the step span name and attributes.
func TestStartStepSpan(t *testing.T) {
	sm, exporter := setupTracingTest(t)

	_, span := sm.StartStepSpan(context.Background(), "g-1", 12)
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "litegraph.step", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	v, ok := attrValue(spans[0].Attributes, "graph.iteration")
	require.True(t, ok)
	assert.Equal(t, int64(12), v.AsInt64())
}

// TestStartNodeSpan_Nested verifies node spans are children of the step.
func TestStartNodeSpan_Nested(t *testing.T) {
	sm, exporter := setupTracingTest(t)

	ctx, step := sm.StartStepSpan(context.Background(), "g-1", 0)
	_, node := sm.StartNodeSpan(ctx, 4, "math/sum", "execute")
	sm.EndSpanWithError(node, errors.New("boom"))
	sm.EndSpanWithError(step, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	nodeSpan := spans[0]
	assert.Equal(t, "litegraph.node.execute", nodeSpan.Name)
	assert.Equal(t, codes.Error, nodeSpan.Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), nodeSpan.Parent.SpanID())
	v, ok := attrValue(nodeSpan.Attributes, "node.type")
	require.True(t, ok)
	assert.Equal(t, "math/sum", v.AsString())
}

// TestAddSpanEvent verifies events land on the active span.
func TestAddSpanEvent(t *testing.T) {
	sm, exporter := setupTracingTest(t)

	ctx, span := sm.StartStepSpan(context.Background(), "g", 0)
	sm.AddSpanEvent(ctx, "history.saved", attribute.Int("seq", 3))
	sm.AddSpanEvent(context.Background(), "ignored")
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "history.saved", spans[0].Events[0].Name)
}

// TestEndSpanWithError_NilSpan verifies a nil span is ignored.
func TestEndSpanWithError_NilSpan(t *testing.T) {
	sm, _ := setupTracingTest(t)
	assert.NotPanics(t, func() { sm.EndSpanWithError(nil, nil) })
}
