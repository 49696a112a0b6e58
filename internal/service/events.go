package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"basegraph.app/suggestbox/internal/model"
)

// EventPublisher receives domain events after successful writes.
type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// publish never fails the caller; the write already happened. A nil
// publisher drops the event.
func publish(ctx context.Context, p EventPublisher, now time.Time, typ model.EventType, suggestionID, relatedID, actorID string) {
	if p == nil {
		return
	}
	event := model.Event{
		Type:         typ,
		SuggestionID: suggestionID,
		RelatedID:    relatedID,
		ActorID:      actorID,
		OccurredAt:   now,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish suggestion event",
			"error", err,
			"event_type", typ,
			"suggestion_id", suggestionID)
	}
}
