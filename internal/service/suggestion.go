package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/store"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
	maxDepartments       = 20
)

type ListFilter struct {
	Status *model.Status
}

type CreateSuggestionInput struct {
	Title       string
	Description string
	IsAnonymous bool
	Departments []string
	Attachments []model.Attachment
}

// UpdateSuggestionInput carries only the fields to change. Status, scores
// and departments are admin-only.
type UpdateSuggestionInput struct {
	Title       *string
	Description *string
	Status      *model.Status
	EffortScore *int
	ImpactScore *int
	Departments *[]string
}

func (in UpdateSuggestionInput) touchesAdminFields() bool {
	return in.Status != nil || in.EffortScore != nil || in.ImpactScore != nil || in.Departments != nil
}

func (in UpdateSuggestionInput) empty() bool {
	return !in.touchesAdminFields() && in.Title == nil && in.Description == nil
}

type SuggestionService interface {
	List(ctx context.Context, p model.Principal, filter ListFilter) ([]model.Suggestion, error)
	Get(ctx context.Context, p model.Principal, id string) (*model.Suggestion, error)
	Create(ctx context.Context, p model.Principal, in CreateSuggestionInput) (*model.Suggestion, error)
	Update(ctx context.Context, p model.Principal, id string, in UpdateSuggestionInput) (*model.Suggestion, error)
	Delete(ctx context.Context, p model.Principal, id string) error
	ToggleVote(ctx context.Context, p model.Principal, id string) (*model.Suggestion, error)
	SetLocked(ctx context.Context, p model.Principal, id string, locked bool) (*model.Suggestion, error)
	SetPinned(ctx context.Context, p model.Principal, id string, pinned bool) (*model.Suggestion, error)
}

type suggestionService struct {
	suggestions store.SuggestionStore
	tx          TxRunner
	events      EventPublisher
	newID       id.Generator
	now         func() time.Time
}

func NewSuggestionService(suggestions store.SuggestionStore, tx TxRunner, events EventPublisher, newID id.Generator, now func() time.Time) SuggestionService {
	return &suggestionService{
		suggestions: suggestions,
		tx:          tx,
		events:      events,
		newID:       newID,
		now:         now,
	}
}

func (s *suggestionService) List(ctx context.Context, _ model.Principal, filter ListFilter) ([]model.Suggestion, error) {
	all, err := s.suggestions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}

	out := all[:0]
	for _, sg := range all {
		if filter.Status != nil && sg.Status != *filter.Status {
			continue
		}
		out = append(out, sg)
	}
	SortForDisplay(out)
	return out, nil
}

// SortForDisplay orders pinned suggestions first, then newest first.
func SortForDisplay(list []model.Suggestion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsPinned != list[j].IsPinned {
			return list[i].IsPinned
		}
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

func (s *suggestionService) Get(ctx context.Context, _ model.Principal, id string) (*model.Suggestion, error) {
	return loadSuggestion(ctx, s.suggestions, id)
}

func (s *suggestionService) Create(ctx context.Context, p model.Principal, in CreateSuggestionInput) (*model.Suggestion, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if len(description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
	}
	departments, err := normalizeDepartments(in.Departments)
	if err != nil {
		return nil, err
	}
	attachments, err := normalizeAttachments(in.Attachments)
	if err != nil {
		return nil, err
	}

	author := p.DisplayName
	if in.IsAnonymous {
		author = auth.AnonymousName
	}

	sg := &model.Suggestion{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Author:      author,
		AuthorID:    ptr(p.UserID),
		IsAnonymous: in.IsAnonymous,
		Status:      model.StatusNew,
		Departments: departments,
		Attachments: attachments,
		Timestamp:   s.now().UTC(),
	}
	sg.Normalize()

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &sg.ID})
	if err := s.suggestions.Create(ctx, sg); err != nil {
		return nil, fmt.Errorf("creating suggestion: %w", err)
	}

	slog.InfoContext(ctx, "suggestion created", "anonymous", sg.IsAnonymous, "departments", len(sg.Departments))
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionCreated, sg.ID, "", p.UserID)
	return sg, nil
}

func (s *suggestionService) Update(ctx context.Context, p model.Principal, id string, in UpdateSuggestionInput) (*model.Suggestion, error) {
	if in.empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if in.touchesAdminFields() && !p.IsAdmin {
		return nil, fmt.Errorf("%w: only administrators can change status, scores or departments", ErrForbidden)
	}

	var (
		title, description *string
		departments        []string
	)
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if err := validateTitle(t); err != nil {
			return nil, err
		}
		title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if len(d) > maxDescriptionLength {
			return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLength)
		}
		description = &d
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		if *in.Status == model.StatusMerged {
			return nil, fmt.Errorf("%w: use the merge operation to merge suggestions", ErrInvalidInput)
		}
	}
	if err := validateScore("effortScore", in.EffortScore); err != nil {
		return nil, err
	}
	if err := validateScore("impactScore", in.ImpactScore); err != nil {
		return nil, err
	}
	if in.Departments != nil {
		var err error
		if departments, err = normalizeDepartments(*in.Departments); err != nil {
			return nil, err
		}
	}

	var statusChanged bool
	updated, err := s.tx.Mutate(ctx, id, func(sg *model.Suggestion) error {
		statusChanged = false
		if !p.IsAdmin && !sg.IsAuthoredBy(p.UserID) {
			return fmt.Errorf("%w: only the author can edit this suggestion", ErrForbidden)
		}
		if title != nil {
			sg.Title = *title
		}
		if description != nil {
			sg.Description = *description
		}
		if in.Departments != nil {
			sg.Departments = departments
		}
		if in.Status != nil && *in.Status != sg.Status {
			from, to := sg.Status, *in.Status
			sg.Status = to
			sg.Activity = append(sg.Activity, model.Activity{
				ID:        s.newID(),
				Type:      model.ActivityTypeStatus,
				Timestamp: s.now().UTC(),
				By:        p.DisplayName,
				UserID:    p.UserID,
				From:      &from,
				To:        &to,
			})
			statusChanged = true
		}
		scoreChanged := false
		if in.EffortScore != nil && *in.EffortScore != sg.EffortScore {
			sg.EffortScore = *in.EffortScore
			scoreChanged = true
		}
		if in.ImpactScore != nil && *in.ImpactScore != sg.ImpactScore {
			sg.ImpactScore = *in.ImpactScore
			scoreChanged = true
		}
		if scoreChanged {
			sg.PriorityScore = model.PriorityScoreFor(sg.EffortScore, sg.ImpactScore)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID})
	slog.InfoContext(ctx, "suggestion updated", "status_changed", statusChanged, "status", updated.Status)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionUpdated, updated.ID, "", p.UserID)
	return updated, nil
}

func (s *suggestionService) Delete(ctx context.Context, p model.Principal, id string) error {
	sg, err := loadSuggestion(ctx, s.suggestions, id)
	if err != nil {
		return err
	}
	if !p.IsAdmin && !sg.IsAuthoredBy(p.UserID) {
		return fmt.Errorf("%w: only the author or an administrator can delete this suggestion", ErrForbidden)
	}

	if err := s.suggestions.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSuggestionNotFound
		}
		return fmt.Errorf("deleting suggestion: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &id})
	slog.InfoContext(ctx, "suggestion deleted", "by_admin", p.IsAdmin)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionDeleted, id, "", p.UserID)
	return nil
}

func (s *suggestionService) ToggleVote(ctx context.Context, p model.Principal, id string) (*model.Suggestion, error) {
	var voted bool
	updated, err := s.tx.Mutate(ctx, id, func(sg *model.Suggestion) error {
		voted = sg.ToggleVote(p.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID})
	slog.DebugContext(ctx, "vote toggled", "voted", voted, "votes", updated.Votes)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionVoted, updated.ID, "", p.UserID)
	return updated, nil
}

func (s *suggestionService) SetLocked(ctx context.Context, p model.Principal, id string, locked bool) (*model.Suggestion, error) {
	typ := model.ActivityTypeUnlock
	if locked {
		typ = model.ActivityTypeLock
	}
	return s.setFlag(ctx, p, id, typ, func(sg *model.Suggestion) *bool { return &sg.IsLocked }, locked)
}

func (s *suggestionService) SetPinned(ctx context.Context, p model.Principal, id string, pinned bool) (*model.Suggestion, error) {
	typ := model.ActivityTypeUnpin
	if pinned {
		typ = model.ActivityTypePin
	}
	return s.setFlag(ctx, p, id, typ, func(sg *model.Suggestion) *bool { return &sg.IsPinned }, pinned)
}

// setFlag flips a moderation flag and records the activity. Setting a flag
// to its current value is a no-op and appends nothing.
func (s *suggestionService) setFlag(ctx context.Context, p model.Principal, id string, typ model.ActivityType, field func(*model.Suggestion) *bool, value bool) (*model.Suggestion, error) {
	if !p.IsAdmin {
		return nil, fmt.Errorf("%w: only administrators can %s suggestions", ErrForbidden, typ)
	}

	updated, err := s.tx.Mutate(ctx, id, func(sg *model.Suggestion) error {
		flag := field(sg)
		if *flag == value {
			return errNoChange
		}
		*flag = value
		sg.Activity = append(sg.Activity, model.Activity{
			ID:        s.newID(),
			Type:      typ,
			Timestamp: s.now().UTC(),
			By:        p.DisplayName,
			UserID:    p.UserID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID})
	slog.InfoContext(ctx, "suggestion moderated", "action", typ)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionUpdated, updated.ID, "", p.UserID)
	return updated, nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
	}
	return nil
}

func validateScore(name string, v *int) error {
	if v != nil && (*v < model.MinScore || *v > model.MaxScore) {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidInput, name, model.MinScore, model.MaxScore)
	}
	return nil
}

func normalizeDepartments(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		key := strings.ToLower(d)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	if len(out) > maxDepartments {
		return nil, fmt.Errorf("%w: at most %d departments", ErrInvalidInput, maxDepartments)
	}
	return out, nil
}

func normalizeAttachments(in []model.Attachment) ([]model.Attachment, error) {
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		if strings.TrimSpace(a.URL) == "" {
			return nil, fmt.Errorf("%w: attachment url is required", ErrInvalidInput)
		}
		a.IsImage = model.IsImageContentType(a.ContentType)
		out = append(out, a)
	}
	return out, nil
}
