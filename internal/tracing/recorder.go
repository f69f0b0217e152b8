package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/veil/internal/pubsub"
	"github.com/zjrosen/veil/internal/registry"
)

// Recorder turns registry lifecycle events into spans: one span per overlay
// covering open through landed close, with register/unregister recorded as
// span events when they happen while the overlay is open.
type Recorder struct {
	tracer trace.Tracer

	mu     sync.Mutex
	active map[string]trace.Span
}

// NewRecorder builds a recorder over the provider's tracer.
func NewRecorder(p *Provider) *Recorder {
	return &Recorder{
		tracer: p.Tracer(),
		active: make(map[string]trace.Span),
	}
}

// Run consumes registry events until the context is canceled or the channel
// closes, ending any spans still open on the way out.
func (r *Recorder) Run(ctx context.Context, events <-chan pubsub.Event[registry.Change]) {
	defer r.endAll()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.record(ctx, ev)
		}
	}
}

func (r *Recorder) record(ctx context.Context, ev pubsub.Event[registry.Change]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ev.Payload.ID
	span, open := r.active[id]

	switch ev.Type {
	case pubsub.OpenedEvent:
		if open {
			// Raised back to topmost while already open
			span.SetAttributes(attribute.Bool(AttrTopmost, ev.Payload.Topmost == id))
			return
		}
		_, span = r.tracer.Start(ctx, SpanPrefixOverlay+id,
			trace.WithAttributes(
				attribute.String(AttrOverlayID, id),
				attribute.Bool(AttrTopmost, ev.Payload.Topmost == id),
			))
		r.active[id] = span

	case pubsub.ClosedEvent:
		if !open {
			return
		}
		span.SetAttributes(
			attribute.Int(AttrOpenCount, ev.Payload.OpenCount),
			attribute.Int(AttrLockCount, ev.Payload.LockCount),
		)
		span.SetStatus(codes.Ok, "")
		span.End()
		delete(r.active, id)

	case pubsub.RegisteredEvent:
		if open {
			span.AddEvent(EventRegistered)
		}

	case pubsub.UnregisteredEvent:
		if open {
			// Torn down mid-open: the span ends here rather than at a close
			span.AddEvent(EventUnregistered)
			span.SetStatus(codes.Ok, "")
			span.End()
			delete(r.active, id)
		}
	}
}

func (r *Recorder) endAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, span := range r.active {
		span.End()
		delete(r.active, id)
	}
}
