package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/store"
)

const defaultMaxAttempts = 5

// errNoChange tells the runner the mutation was a no-op and nothing should be written.
var errNoChange = errors.New("no change")

// TxRunner applies a read-modify-write to one suggestion. The replace is
// guarded by the document version; on conflict the document is reloaded
// and fn is applied again.
type TxRunner interface {
	Mutate(ctx context.Context, id string, fn func(s *model.Suggestion) error) (*model.Suggestion, error)
}

type optimisticTxRunner struct {
	suggestions store.SuggestionStore
	maxAttempts int
}

// NewTxRunner builds a TxRunner over the suggestion store.
func NewTxRunner(suggestions store.SuggestionStore, maxAttempts int) TxRunner {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &optimisticTxRunner{suggestions: suggestions, maxAttempts: maxAttempts}
}

func (r *optimisticTxRunner) Mutate(ctx context.Context, id string, fn func(s *model.Suggestion) error) (*model.Suggestion, error) {
	for attempt := 1; ; attempt++ {
		s, err := loadSuggestion(ctx, r.suggestions, id)
		if err != nil {
			return nil, err
		}

		if err := fn(s); err != nil {
			if errors.Is(err, errNoChange) {
				return s, nil
			}
			return nil, err
		}

		err = r.suggestions.Replace(ctx, s)
		switch {
		case err == nil:
			return s, nil
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrSuggestionNotFound
		case errors.Is(err, store.ErrConflict):
			if attempt >= r.maxAttempts {
				slog.WarnContext(ctx, "giving up after repeated version conflicts", "attempts", attempt)
				return nil, ErrConflict
			}
			slog.DebugContext(ctx, "version conflict, retrying", "attempt", attempt)
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("replacing suggestion: %w", err)
		}
	}
}

func loadSuggestion(ctx context.Context, suggestions store.SuggestionStore, id string) (*model.Suggestion, error) {
	s, err := suggestions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("loading suggestion: %w", err)
	}
	return s, nil
}

func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(rand.IntN(attempt*2)+1) * time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ptr[T any](v T) *T { return &v }
