package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"basegraph.app/suggestbox/common/arangodb"
	"basegraph.app/suggestbox/internal/model"
)

type arangoSuggestion struct {
	Key string `json:"_key"`
	Rev string `json:"_rev,omitempty"`
	model.Suggestion
}

type arangoSuggestionStore struct {
	client     arangodb.Client
	collection string
}

func newArangoSuggestionStore(client arangodb.Client, collection string) SuggestionStore {
	return &arangoSuggestionStore{client: client, collection: collection}
}

func (s *arangoSuggestionStore) FindByID(ctx context.Context, id string) (*model.Suggestion, error) {
	var doc arangoSuggestion
	rev, err := s.client.ReadDocument(ctx, s.collection, id, &doc)
	if err != nil {
		return nil, mapArangoError(err)
	}
	out := doc.Suggestion
	out.ID = doc.Key
	out.Version = rev
	out.Normalize()
	return &out, nil
}

func (s *arangoSuggestionStore) FindAll(ctx context.Context) ([]model.Suggestion, error) {
	raw, err := s.client.Query(ctx, `FOR s IN @@col RETURN s`, map[string]any{
		"@col": s.collection,
	})
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}

	out := make([]model.Suggestion, 0, len(raw))
	for _, r := range raw {
		var doc arangoSuggestion
		if err := json.Unmarshal(r, &doc); err != nil {
			return nil, fmt.Errorf("decoding suggestion: %w", err)
		}
		sg := doc.Suggestion
		sg.ID = doc.Key
		sg.Version = doc.Rev
		sg.Normalize()
		out = append(out, sg)
	}
	// Timestamps are stored as RFC3339 strings with trimmed fractions, which
	// do not sort lexically.
	sortByCreation(out)
	return out, nil
}

func (s *arangoSuggestionStore) Create(ctx context.Context, sg *model.Suggestion) error {
	rev, err := s.client.CreateDocument(ctx, s.collection, arangoSuggestion{Key: sg.ID, Suggestion: *sg})
	if err != nil {
		return fmt.Errorf("creating suggestion: %w", err)
	}
	sg.Version = rev
	return nil
}

func (s *arangoSuggestionStore) Replace(ctx context.Context, sg *model.Suggestion) error {
	rev, err := s.client.ReplaceDocument(ctx, s.collection, sg.ID, arangoSuggestion{Key: sg.ID, Suggestion: *sg}, sg.Version)
	if err != nil {
		return mapArangoError(err)
	}
	sg.Version = rev
	return nil
}

func (s *arangoSuggestionStore) Delete(ctx context.Context, id string) error {
	return mapArangoError(s.client.DeleteDocument(ctx, s.collection, id))
}

func (s *arangoSuggestionStore) ReplaceAndDelete(ctx context.Context, target *model.Suggestion, deleteID string) error {
	rev, err := s.client.ReplaceAndDelete(ctx, s.collection, target.ID,
		arangoSuggestion{Key: target.ID, Suggestion: *target}, target.Version, deleteID)
	if err != nil {
		return mapArangoError(err)
	}
	target.Version = rev
	return nil
}

func (s *arangoSuggestionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func mapArangoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, arangodb.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, arangodb.ErrRevisionMismatch):
		return ErrConflict
	default:
		return err
	}
}
