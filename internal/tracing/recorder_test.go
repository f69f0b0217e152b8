package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/veil/internal/pubsub"
	"github.com/zjrosen/veil/internal/registry"
)

func newTestRecorder(t *testing.T) (*Recorder, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := &Recorder{
		tracer: tp.Tracer("test"),
		active: make(map[string]trace.Span),
	}
	return r, exporter
}

func runRecorder(r *Recorder, ctx context.Context) (chan<- pubsub.Event[registry.Change], <-chan struct{}) {
	events := make(chan pubsub.Event[registry.Change], 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, events)
	}()
	return events, done
}

func TestRecorder_SpanPerOpenClose(t *testing.T) {
	r, exporter := newTestRecorder(t)
	events, done := runRecorder(r, context.Background())

	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.OpenedEvent,
		Payload: registry.Change{ID: "m1", Topmost: "m1", OpenCount: 1},
	}
	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.ClosedEvent,
		Payload: registry.Change{ID: "m1", OpenCount: 0},
	}
	close(events)
	<-done

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, SpanPrefixOverlay+"m1", spans[0].Name)
	require.Contains(t, spans[0].Attributes, attribute.Bool(AttrTopmost, true))
}

func TestRecorder_RaiseWhileOpenKeepsSingleSpan(t *testing.T) {
	r, exporter := newTestRecorder(t)
	events, done := runRecorder(r, context.Background())

	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.OpenedEvent,
		Payload: registry.Change{ID: "m1", Topmost: "m1", OpenCount: 1},
	}
	// Raised back to topmost after another overlay briefly sat above it.
	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.OpenedEvent,
		Payload: registry.Change{ID: "m1", Topmost: "m1", OpenCount: 2},
	}
	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.ClosedEvent,
		Payload: registry.Change{ID: "m1", OpenCount: 1},
	}
	close(events)
	<-done

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Contains(t, spans[0].Attributes, attribute.Bool(AttrTopmost, true))
}

func TestRecorder_UnregisterEndsOpenSpan(t *testing.T) {
	r, exporter := newTestRecorder(t)
	events, done := runRecorder(r, context.Background())

	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.OpenedEvent,
		Payload: registry.Change{ID: "m1", Topmost: "m1", OpenCount: 1},
	}
	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.UnregisteredEvent,
		Payload: registry.Change{ID: "m1"},
	}
	close(events)
	<-done

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	require.Equal(t, EventUnregistered, spans[0].Events[0].Name)
}

func TestRecorder_CloseWithoutOpenIgnored(t *testing.T) {
	r, exporter := newTestRecorder(t)
	events, done := runRecorder(r, context.Background())

	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.ClosedEvent,
		Payload: registry.Change{ID: "m1"},
	}
	close(events)
	<-done

	require.Empty(t, exporter.GetSpans())
}

func TestRecorder_ContextCancelEndsDanglingSpans(t *testing.T) {
	r, exporter := newTestRecorder(t)
	ctx, cancel := context.WithCancel(context.Background())
	events, done := runRecorder(r, ctx)

	events <- pubsub.Event[registry.Change]{
		Type:    pubsub.OpenedEvent,
		Payload: registry.Change{ID: "m1", OpenCount: 1},
	}
	// Let the recorder drain the event before canceling
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "dangling span ended on shutdown")
}
