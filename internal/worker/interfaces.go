package worker

import (
	"context"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// EventProcessor reacts to one suggestion event.
type EventProcessor interface {
	Process(ctx context.Context, event model.Event) error
}

// Indexer is the part of the search service the worker drives.
type Indexer interface {
	Index(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}
