package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/store"
)

type MergeService interface {
	// Merge folds source into target and deletes source.
	Merge(ctx context.Context, p model.Principal, targetID, sourceID string) (*model.Suggestion, error)
	// Sweep deletes suggestions that were already folded into another one
	// but survived because the delete never happened.
	Sweep(ctx context.Context) (SweepResult, error)
}

type SweepResult struct {
	Scanned int      `json:"scanned"`
	Deleted []string `json:"deleted"`
}

// MergeActor identifies who performed a merge and supplies ids for the
// synthesized entries.
type MergeActor struct {
	Name   string
	UserID string
	Now    time.Time
	NewID  id.Generator
}

type mergeService struct {
	suggestions store.SuggestionStore
	events      EventPublisher
	newID       id.Generator
	now         func() time.Time
	maxAttempts int
}

func NewMergeService(suggestions store.SuggestionStore, events EventPublisher, newID id.Generator, now func() time.Time, maxAttempts int) MergeService {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &mergeService{
		suggestions: suggestions,
		events:      events,
		newID:       newID,
		now:         now,
		maxAttempts: maxAttempts,
	}
}

func (s *mergeService) Merge(ctx context.Context, p model.Principal, targetID, sourceID string) (*model.Suggestion, error) {
	// Authorization comes before any read so a refused merge touches nothing.
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: only administrators can merge suggestions", ErrForbidden)
	}
	if targetID == "" || sourceID == "" {
		return nil, fmt.Errorf("%w: target and source ids are required", ErrInvalidInput)
	}
	if targetID == sourceID {
		return nil, fmt.Errorf("%w: a suggestion cannot be merged into itself", ErrInvalidInput)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &targetID})

	for attempt := 1; ; attempt++ {
		target, err := loadSuggestion(ctx, s.suggestions, targetID)
		if err != nil {
			return nil, err
		}
		source, err := loadSuggestion(ctx, s.suggestions, sourceID)
		if err != nil {
			return nil, err
		}

		recovered := target.HasMergeFrom(source.ID)
		if !recovered {
			ApplyMerge(target, *source, MergeActor{
				Name:   p.DisplayName,
				UserID: p.UserID,
				Now:    s.now().UTC(),
				NewID:  s.newID,
			})
		}

		err = s.suggestions.ReplaceAndDelete(ctx, target, source.ID)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "suggestions merged",
				"source_id", source.ID,
				"votes", target.Votes,
				"comments", len(target.Comments),
				"recovered", recovered)
			now := s.now()
			publish(ctx, s.events, now, model.EventTypeSuggestionMerged, target.ID, source.ID, p.UserID)
			publish(ctx, s.events, now, model.EventTypeSuggestionDeleted, source.ID, target.ID, p.UserID)
			return target, nil
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrSuggestionNotFound
		case errors.Is(err, store.ErrConflict):
			if attempt >= s.maxAttempts {
				return nil, ErrConflict
			}
			slog.DebugContext(ctx, "merge hit a version conflict, retrying", "attempt", attempt)
			if err := backoff(ctx, attempt); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("persisting merge: %w", err)
		}
	}
}

// ApplyMerge folds source into target in place. Votes are summed while
// voters are unioned, so a user who voted on both keeps both votes. A
// description comment and a copy of every source comment are appended,
// followed by a merge activity and a merge ref.
func ApplyMerge(target *model.Suggestion, source model.Suggestion, actor MergeActor) {
	seen := make(map[string]struct{}, len(target.Voters)+len(source.Voters))
	voters := make([]string, 0, len(target.Voters)+len(source.Voters))
	for _, v := range append(append([]string{}, target.Voters...), source.Voters...) {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		voters = append(voters, v)
	}
	target.Voters = voters
	target.Votes += source.Votes

	sourceID := source.ID
	sourceTitle := source.Title

	description := model.Comment{
		ID:                      actor.NewID(),
		Text:                    source.Description,
		Author:                  source.Author,
		AuthorInitial:           auth.Initial(source.Author),
		AuthorID:                source.AuthorID,
		IsAnonymous:             source.IsAnonymous,
		Timestamp:               source.Timestamp,
		LikedBy:                 []string{},
		Attachments:             append([]model.Attachment{}, source.Attachments...),
		FromMerged:              true,
		OriginalSuggestionID:    &sourceID,
		OriginalSuggestionTitle: &sourceTitle,
		IsMergeDescription:      true,
	}
	target.Comments = append(target.Comments, description)

	for _, c := range source.Comments {
		copied := c.Clone()
		copied.ID = actor.NewID()
		copied.FromMerged = true
		copied.OriginalSuggestionID = &sourceID
		copied.OriginalSuggestionTitle = &sourceTitle
		copied.IsMergeDescription = false
		target.Comments = append(target.Comments, copied)
	}

	target.Activity = append(target.Activity, model.Activity{
		ID:          actor.NewID(),
		Type:        model.ActivityTypeMerge,
		Timestamp:   actor.Now,
		By:          actor.Name,
		UserID:      actor.UserID,
		SourceID:    &sourceID,
		SourceTitle: &sourceTitle,
	})

	target.MergedWith = append(target.MergedWith, model.MergedSuggestionRef{
		ID:        sourceID,
		Title:     sourceTitle,
		Timestamp: actor.Now,
	})
}

func (s *mergeService) Sweep(ctx context.Context) (SweepResult, error) {
	all, err := s.suggestions.FindAll(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("listing suggestions: %w", err)
	}

	absorbedBy := make(map[string]string)
	for _, sg := range all {
		for _, a := range sg.Activity {
			if a.Type == model.ActivityTypeMerge && a.SourceID != nil {
				absorbedBy[*a.SourceID] = sg.ID
			}
		}
	}

	result := SweepResult{Scanned: len(all), Deleted: []string{}}
	for _, sg := range all {
		targetID, absorbed := absorbedBy[sg.ID]
		if !absorbed || targetID == sg.ID {
			continue
		}
		if err := s.suggestions.Delete(ctx, sg.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return result, fmt.Errorf("deleting merged source %s: %w", sg.ID, err)
		}
		slog.WarnContext(ctx, "deleted orphaned merge source",
			"suggestion_id", sg.ID,
			"target_id", targetID)
		publish(ctx, s.events, s.now(), model.EventTypeSuggestionDeleted, sg.ID, targetID, "")
		result.Deleted = append(result.Deleted, sg.ID)
	}

	return result, nil
}
