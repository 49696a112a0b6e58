package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/store"
)

// Service is the facade that tries the index first and falls back to a
// scan over the store.
type Service struct {
	engine      Engine
	suggestions store.SuggestionStore
}

// NewService creates a search service. engine may be nil when no index is
// configured.
func NewService(engine Engine, suggestions store.SuggestionStore) *Service {
	return &Service{engine: engine, suggestions: suggestions}
}

func (s *Service) indexAvailable() bool {
	return s.engine != nil && s.engine.Healthy()
}

func (s *Service) Search(ctx context.Context, q Query) ([]model.Suggestion, error) {
	if s.indexAvailable() {
		ids, err := s.engine.Search(q)
		if err == nil {
			return s.load(ctx, ids, q)
		}
		slog.WarnContext(ctx, "index search failed, falling back to store scan", "error", err)
	}
	return s.scan(ctx, q)
}

// load resolves index hits against the store so results are never stale.
// Hits for documents that no longer exist are skipped.
func (s *Service) load(ctx context.Context, ids []string, q Query) ([]model.Suggestion, error) {
	out := make([]model.Suggestion, 0, len(ids))
	for _, id := range ids {
		sg, err := s.suggestions.FindByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading search hit %s: %w", id, err)
		}
		if q.Status != nil && sg.Status != *q.Status {
			continue
		}
		out = append(out, *sg)
	}
	return out, nil
}

func (s *Service) scan(ctx context.Context, q Query) ([]model.Suggestion, error) {
	all, err := s.suggestions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}

	limit := q.limit()
	out := make([]model.Suggestion, 0, min(limit, len(all)))
	for _, sg := range all {
		if !matches(sg, q) {
			continue
		}
		out = append(out, sg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Index re-reads a suggestion and pushes it to the index. A suggestion that
// has disappeared meanwhile is removed instead.
func (s *Service) Index(ctx context.Context, id string) error {
	if s.engine == nil {
		return nil
	}
	sg, err := s.suggestions.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return s.Remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("loading suggestion: %w", err)
	}
	if err := s.engine.Upsert([]Record{RecordFrom(*sg)}); err != nil {
		return fmt.Errorf("indexing suggestion %s: %w", id, err)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if s.engine == nil {
		return nil
	}
	if err := s.engine.Delete(id); err != nil {
		return fmt.Errorf("removing suggestion %s from index: %w", id, err)
	}
	slog.DebugContext(ctx, "suggestion removed from index", "suggestion_id", id)
	return nil
}

// Reindex pushes every stored suggestion to the index and returns how many
// were sent.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if !s.indexAvailable() {
		return 0, fmt.Errorf("search index is not available")
	}
	all, err := s.suggestions.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing suggestions: %w", err)
	}
	records := make([]Record, 0, len(all))
	for _, sg := range all {
		records = append(records, RecordFrom(sg))
	}
	if err := s.engine.Upsert(records); err != nil {
		return 0, fmt.Errorf("reindexing: %w", err)
	}
	slog.InfoContext(ctx, "search index rebuilt", "suggestions", len(records))
	return len(records), nil
}
