package model

import (
	"slices"
	"time"
)

type Comment struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Author          string       `json:"author"`
	AuthorInitial   string       `json:"authorInitial"`
	AuthorID        *string      `json:"authorId"`
	IsAnonymous     bool         `json:"isAnonymous"`
	Timestamp       time.Time    `json:"timestamp"`
	Likes           int          `json:"likes"`
	LikedBy         []string     `json:"likedBy"`
	Attachments     []Attachment `json:"attachments"`
	EditedTimestamp *time.Time   `json:"editedTimestamp,omitempty"`
	EditedBy        *string      `json:"editedBy,omitempty"`

	// Merge provenance, set on comments folded in from another suggestion.
	FromMerged              bool    `json:"fromMerged,omitempty"`
	OriginalSuggestionID    *string `json:"originalSuggestionId,omitempty"`
	OriginalSuggestionTitle *string `json:"originalSuggestionTitle,omitempty"`
	IsMergeDescription      bool    `json:"isMergeDescription,omitempty"`
}

// ToggleLike flips the user's like and reports whether it is now set.
func (c *Comment) ToggleLike(userID string) bool {
	if i := slices.Index(c.LikedBy, userID); i >= 0 {
		c.LikedBy = slices.Delete(c.LikedBy, i, i+1)
		c.Likes = max(c.Likes-1, 0)
		return false
	}
	c.LikedBy = append(c.LikedBy, userID)
	c.Likes++
	return true
}

func (c *Comment) IsAuthoredBy(userID string) bool {
	return userID != "" && c.AuthorID != nil && *c.AuthorID == userID
}

func (c *Comment) normalize() {
	if c.LikedBy == nil {
		c.LikedBy = []string{}
	}
	if c.Attachments == nil {
		c.Attachments = []Attachment{}
	}
	if c.Likes < 0 {
		c.Likes = 0
	}
}

func (c Comment) Clone() Comment {
	out := c
	out.AuthorID = clonePtr(c.AuthorID)
	out.LikedBy = slices.Clone(c.LikedBy)
	out.Attachments = slices.Clone(c.Attachments)
	out.EditedTimestamp = clonePtr(c.EditedTimestamp)
	out.EditedBy = clonePtr(c.EditedBy)
	out.OriginalSuggestionID = clonePtr(c.OriginalSuggestionID)
	out.OriginalSuggestionTitle = clonePtr(c.OriginalSuggestionTitle)
	return out
}
