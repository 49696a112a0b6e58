package worker

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/suggestbox/internal/model"
)

// SearchSyncProcessor keeps the search index in step with the store.
// Events only say which suggestion changed; the indexer re-reads it.
type SearchSyncProcessor struct {
	indexer Indexer
}

func NewSearchSyncProcessor(indexer Indexer) *SearchSyncProcessor {
	return &SearchSyncProcessor{indexer: indexer}
}

func (p *SearchSyncProcessor) Process(ctx context.Context, event model.Event) error {
	switch event.Type {
	case model.EventTypeSuggestionDeleted:
		return p.indexer.Remove(ctx, event.SuggestionID)
	case model.EventTypeSuggestionCreated,
		model.EventTypeSuggestionUpdated,
		model.EventTypeSuggestionVoted,
		model.EventTypeSuggestionCommented,
		model.EventTypeSuggestionMerged:
		return p.indexer.Index(ctx, event.SuggestionID)
	default:
		slog.WarnContext(ctx, "ignoring unknown event type", "event_type", event.Type)
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}
