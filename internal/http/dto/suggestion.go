package dto

import (
	"time"

	"basegraph.app/suggestbox/internal/model"
)

type CreateSuggestionRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	IsAnonymous bool               `json:"isAnonymous"`
	Departments []string           `json:"departments"`
	Attachments []model.Attachment `json:"attachments"`
}

// UpdateSuggestionRequest fields are pointers so an omitted field is left
// untouched.
type UpdateSuggestionRequest struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *model.Status `json:"status"`
	EffortScore *int          `json:"effortScore"`
	ImpactScore *int          `json:"impactScore"`
	Departments *[]string     `json:"departments"`
}

type LockRequest struct {
	IsLocked *bool `json:"isLocked" binding:"required"`
}

type PinRequest struct {
	IsPinned *bool `json:"isPinned" binding:"required"`
}

type MergeRequest struct {
	SourceID string `json:"sourceId" binding:"required"`
}

type SuggestionResponse struct {
	ID            string                      `json:"id"`
	Title         string                      `json:"title"`
	Description   string                      `json:"description"`
	Author        string                      `json:"author"`
	AuthorID      *string                     `json:"authorId"`
	IsAnonymous   bool                        `json:"isAnonymous"`
	IsOwner       bool                        `json:"isOwner"`
	Status        model.Status                `json:"status"`
	EffortScore   int                         `json:"effortScore"`
	ImpactScore   int                         `json:"impactScore"`
	PriorityScore int                         `json:"priorityScore"`
	Departments   []string                    `json:"departments"`
	Votes         int                         `json:"votes"`
	Voters        []string                    `json:"voters"`
	HasVoted      bool                        `json:"hasVoted"`
	Comments      []CommentResponse           `json:"comments"`
	Activity      []model.Activity            `json:"activity"`
	MergedWith    []model.MergedSuggestionRef `json:"mergedWith"`
	Attachments   []model.Attachment          `json:"attachments"`
	IsLocked      bool                        `json:"isLocked"`
	IsPinned      bool                        `json:"isPinned"`
	Timestamp     time.Time                   `json:"timestamp"`
}

// ToSuggestionResponse renders s for viewer. The author id of anonymous
// suggestions and comments is never sent, even to the author.
func ToSuggestionResponse(s *model.Suggestion, viewer model.Principal) SuggestionResponse {
	s.Normalize()

	comments := make([]CommentResponse, 0, len(s.Comments))
	for _, c := range s.Comments {
		comments = append(comments, ToCommentResponse(c, viewer))
	}

	authorID := s.AuthorID
	if s.IsAnonymous {
		authorID = nil
	}

	return SuggestionResponse{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		Author:        s.Author,
		AuthorID:      authorID,
		IsAnonymous:   s.IsAnonymous,
		IsOwner:       s.IsAuthoredBy(viewer.UserID),
		Status:        s.Status,
		EffortScore:   s.EffortScore,
		ImpactScore:   s.ImpactScore,
		PriorityScore: s.PriorityScore,
		Departments:   s.Departments,
		Votes:         s.Votes,
		Voters:        s.Voters,
		HasVoted:      s.HasVoter(viewer.UserID),
		Comments:      comments,
		Activity:      s.Activity,
		MergedWith:    s.MergedWith,
		Attachments:   s.Attachments,
		IsLocked:      s.IsLocked,
		IsPinned:      s.IsPinned,
		Timestamp:     s.Timestamp,
	}
}

func ToSuggestionResponses(list []model.Suggestion, viewer model.Principal) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(list))
	for i := range list {
		out = append(out, ToSuggestionResponse(&list[i], viewer))
	}
	return out
}
