package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/model"
)

const maxCommentLength = 5000

type AddCommentInput struct {
	Text        string
	IsAnonymous bool
	Attachments []model.Attachment
}

type CommentService interface {
	Add(ctx context.Context, p model.Principal, suggestionID string, in AddCommentInput) (*model.Suggestion, *model.Comment, error)
	Edit(ctx context.Context, p model.Principal, suggestionID, commentID, text string) (*model.Suggestion, error)
	Delete(ctx context.Context, p model.Principal, suggestionID, commentID string) (*model.Suggestion, error)
	ToggleLike(ctx context.Context, p model.Principal, suggestionID, commentID string) (*model.Suggestion, error)
}

type commentService struct {
	tx     TxRunner
	events EventPublisher
	newID  id.Generator
	now    func() time.Time
}

func NewCommentService(tx TxRunner, events EventPublisher, newID id.Generator, now func() time.Time) CommentService {
	return &commentService{tx: tx, events: events, newID: newID, now: now}
}

func (s *commentService) Add(ctx context.Context, p model.Principal, suggestionID string, in AddCommentInput) (*model.Suggestion, *model.Comment, error) {
	text := strings.TrimSpace(in.Text)
	attachments, err := normalizeAttachments(in.Attachments)
	if err != nil {
		return nil, nil, err
	}
	if text == "" && len(attachments) == 0 {
		return nil, nil, fmt.Errorf("%w: comment text or an attachment is required", ErrInvalidInput)
	}
	if len(text) > maxCommentLength {
		return nil, nil, fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidInput, maxCommentLength)
	}

	author := p.DisplayName
	if in.IsAnonymous {
		author = auth.AnonymousName
	}

	var added model.Comment
	updated, err := s.tx.Mutate(ctx, suggestionID, func(sg *model.Suggestion) error {
		if sg.IsLocked {
			return ErrSuggestionLocked
		}
		added = model.Comment{
			ID:            s.newID(),
			Text:          text,
			Author:        author,
			AuthorInitial: auth.Initial(author),
			AuthorID:      ptr(p.UserID),
			IsAnonymous:   in.IsAnonymous,
			Timestamp:     s.now().UTC(),
			LikedBy:       []string{},
			Attachments:   attachments,
		}
		sg.Comments = append(sg.Comments, added)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID, CommentID: &added.ID})
	slog.InfoContext(ctx, "comment added", "anonymous", added.IsAnonymous, "attachments", len(added.Attachments))
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionCommented, updated.ID, added.ID, p.UserID)
	return updated, &added, nil
}

// Edit is allowed on locked suggestions; locking only blocks new comments.
func (s *commentService) Edit(ctx context.Context, p model.Principal, suggestionID, commentID, text string) (*model.Suggestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrInvalidInput)
	}
	if len(text) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidInput, maxCommentLength)
	}

	updated, err := s.tx.Mutate(ctx, suggestionID, func(sg *model.Suggestion) error {
		_, c := sg.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		if !p.IsAdmin && !c.IsAuthoredBy(p.UserID) {
			return fmt.Errorf("%w: only the author or an administrator can edit this comment", ErrForbidden)
		}
		now := s.now().UTC()
		c.Text = text
		c.EditedTimestamp = &now
		c.EditedBy = ptr(p.DisplayName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID, CommentID: &commentID})
	slog.InfoContext(ctx, "comment edited", "by_admin", p.IsAdmin)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionCommented, updated.ID, commentID, p.UserID)
	return updated, nil
}

func (s *commentService) Delete(ctx context.Context, p model.Principal, suggestionID, commentID string) (*model.Suggestion, error) {
	updated, err := s.tx.Mutate(ctx, suggestionID, func(sg *model.Suggestion) error {
		i, c := sg.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		if !p.IsAdmin && !c.IsAuthoredBy(p.UserID) {
			return fmt.Errorf("%w: only the author or an administrator can delete this comment", ErrForbidden)
		}
		sg.Comments = slices.Delete(sg.Comments, i, i+1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID, CommentID: &commentID})
	slog.InfoContext(ctx, "comment deleted", "by_admin", p.IsAdmin)
	publish(ctx, s.events, s.now(), model.EventTypeSuggestionCommented, updated.ID, commentID, p.UserID)
	return updated, nil
}

func (s *commentService) ToggleLike(ctx context.Context, p model.Principal, suggestionID, commentID string) (*model.Suggestion, error) {
	var liked bool
	updated, err := s.tx.Mutate(ctx, suggestionID, func(sg *model.Suggestion) error {
		_, c := sg.FindComment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		liked = c.ToggleLike(p.UserID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{SuggestionID: &updated.ID, CommentID: &commentID})
	slog.DebugContext(ctx, "comment like toggled", "liked", liked)
	return updated, nil
}
