package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"basegraph.app/suggestbox/internal/model"
)

type memoryEntry struct {
	doc     model.Suggestion
	version int64
}

// MemorySuggestionStore keeps suggestions in process. It honours the same
// version and atomicity contract as the durable backends and is used for
// development and tests.
type MemorySuggestionStore struct {
	mu   sync.RWMutex
	docs map[string]memoryEntry
}

func NewMemorySuggestionStore() *MemorySuggestionStore {
	return &MemorySuggestionStore{docs: make(map[string]memoryEntry)}
}

func (s *MemorySuggestionStore) FindByID(_ context.Context, id string) (*model.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := e.materialize()
	return &out, nil
}

func (s *MemorySuggestionStore) FindAll(_ context.Context) ([]model.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Suggestion, 0, len(s.docs))
	for _, e := range s.docs {
		out = append(out, e.materialize())
	}
	sortByCreation(out)
	return out, nil
}

// sortByCreation orders suggestions oldest first, breaking ties by id.
func sortByCreation(out []model.Suggestion) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
}

func (s *MemorySuggestionStore) Create(_ context.Context, sg *model.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[sg.ID]; exists {
		return ErrConflict
	}
	s.docs[sg.ID] = memoryEntry{doc: sg.Clone(), version: 1}
	sg.Version = "1"
	return nil
}

func (s *MemorySuggestionStore) Replace(_ context.Context, sg *model.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(sg)
}

func (s *MemorySuggestionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemorySuggestionStore) ReplaceAndDelete(_ context.Context, target *model.Suggestion, deleteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[deleteID]; !ok {
		return ErrNotFound
	}
	if err := s.replaceLocked(target); err != nil {
		return err
	}
	delete(s.docs, deleteID)
	return nil
}

func (s *MemorySuggestionStore) Ping(context.Context) error {
	return nil
}

func (s *MemorySuggestionStore) replaceLocked(sg *model.Suggestion) error {
	e, ok := s.docs[sg.ID]
	if !ok {
		return ErrNotFound
	}
	if strconv.FormatInt(e.version, 10) != sg.Version {
		return ErrConflict
	}
	next := e.version + 1
	s.docs[sg.ID] = memoryEntry{doc: sg.Clone(), version: next}
	sg.Version = strconv.FormatInt(next, 10)
	return nil
}

func (e memoryEntry) materialize() model.Suggestion {
	out := e.doc.Clone()
	out.Version = strconv.FormatInt(e.version, 10)
	out.Normalize()
	return out
}
