package store

import (
	"context"
	"errors"

	"basegraph.app/suggestbox/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a replace carries a stale Version.
var ErrConflict = errors.New("version conflict")

// SuggestionStore defines the contract for suggestion document access.
// Every write is a whole-document operation keyed by suggestion id.
type SuggestionStore interface {
	FindByID(ctx context.Context, id string) (*model.Suggestion, error)
	FindAll(ctx context.Context) ([]model.Suggestion, error)
	// Create stores a new document and sets s.Version.
	Create(ctx context.Context, s *model.Suggestion) error
	// Replace overwrites the document if s.Version still matches the stored
	// one, and refreshes s.Version on success.
	Replace(ctx context.Context, s *model.Suggestion) error
	Delete(ctx context.Context, id string) error
	// ReplaceAndDelete replaces target and deletes deleteID atomically.
	ReplaceAndDelete(ctx context.Context, target *model.Suggestion, deleteID string) error
	Ping(ctx context.Context) error
}
