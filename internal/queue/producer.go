package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/suggestbox/internal/model"
)

// Producer appends domain events to the suggestion event stream.
type Producer interface {
	Publish(ctx context.Context, event model.Event) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Publish(ctx context.Context, event model.Event) error {
	if !event.Type.Valid() {
		return fmt.Errorf("publish event: unknown event type %q", event.Type)
	}
	if event.SuggestionID == "" {
		return fmt.Errorf("publish event: missing suggestion id")
	}

	fields := eventValues(event, 1)
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.DebugContext(ctx, "published suggestion event", "event_type", event.Type, "suggestion_id", event.SuggestionID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// NoopProducer drops events. Used when no Redis URL is configured.
type NoopProducer struct{}

func (NoopProducer) Publish(context.Context, model.Event) error { return nil }

func (NoopProducer) Close() error { return nil }

func eventValues(event model.Event, attempt int) map[string]any {
	if attempt <= 0 {
		attempt = 1
	}
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	values := map[string]any{
		"event_type":    string(event.Type),
		"suggestion_id": event.SuggestionID,
		"occurred_at":   occurredAt.UTC().Format(time.RFC3339Nano),
		"attempt":       attempt,
	}
	if event.RelatedID != "" {
		values["related_id"] = event.RelatedID
	}
	if event.ActorID != "" {
		values["actor_id"] = event.ActorID
	}
	if event.TraceID != "" {
		values["trace_id"] = event.TraceID
	}
	return values
}
