package dto

import (
	"slices"
	"time"

	"basegraph.app/suggestbox/internal/model"
)

type AddCommentRequest struct {
	Text        string             `json:"text"`
	IsAnonymous bool               `json:"isAnonymous"`
	Attachments []model.Attachment `json:"attachments"`
}

type EditCommentRequest struct {
	Text string `json:"text"`
}

type CommentResponse struct {
	ID                      string             `json:"id"`
	Text                    string             `json:"text"`
	Author                  string             `json:"author"`
	AuthorInitial           string             `json:"authorInitial"`
	AuthorID                *string            `json:"authorId"`
	IsAnonymous             bool               `json:"isAnonymous"`
	IsOwner                 bool               `json:"isOwner"`
	Timestamp               time.Time          `json:"timestamp"`
	Likes                   int                `json:"likes"`
	LikedBy                 []string           `json:"likedBy"`
	HasLiked                bool               `json:"hasLiked"`
	Attachments             []model.Attachment `json:"attachments"`
	EditedTimestamp         *time.Time         `json:"editedTimestamp,omitempty"`
	EditedBy                *string            `json:"editedBy,omitempty"`
	FromMerged              bool               `json:"fromMerged,omitempty"`
	OriginalSuggestionID    *string            `json:"originalSuggestionId,omitempty"`
	OriginalSuggestionTitle *string            `json:"originalSuggestionTitle,omitempty"`
	IsMergeDescription      bool               `json:"isMergeDescription,omitempty"`
}

func ToCommentResponse(c model.Comment, viewer model.Principal) CommentResponse {
	authorID := c.AuthorID
	if c.IsAnonymous {
		authorID = nil
	}
	likedBy := c.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	attachments := c.Attachments
	if attachments == nil {
		attachments = []model.Attachment{}
	}

	return CommentResponse{
		ID:                      c.ID,
		Text:                    c.Text,
		Author:                  c.Author,
		AuthorInitial:           c.AuthorInitial,
		AuthorID:                authorID,
		IsAnonymous:             c.IsAnonymous,
		IsOwner:                 c.IsAuthoredBy(viewer.UserID),
		Timestamp:               c.Timestamp,
		Likes:                   c.Likes,
		LikedBy:                 likedBy,
		HasLiked:                viewer.UserID != "" && slices.Contains(likedBy, viewer.UserID),
		Attachments:             attachments,
		EditedTimestamp:         c.EditedTimestamp,
		EditedBy:                c.EditedBy,
		FromMerged:              c.FromMerged,
		OriginalSuggestionID:    c.OriginalSuggestionID,
		OriginalSuggestionTitle: c.OriginalSuggestionTitle,
		IsMergeDescription:      c.IsMergeDescription,
	}
}

type AddCommentResponse struct {
	Suggestion SuggestionResponse `json:"suggestion"`
	Comment    CommentResponse    `json:"comment"`
}
