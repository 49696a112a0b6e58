package model

import (
	"slices"
	"time"
)

type Status string

const (
	StatusNew         Status = "New"
	StatusUnderReview Status = "Under Review"
	StatusInProgress  Status = "In Progress"
	StatusImplemented Status = "Implemented"
	StatusDeclined    Status = "Declined"
	StatusMerged      Status = "Merged"
)

// KnownStatuses lists every workflow status in display order.
func KnownStatuses() []Status {
	return []Status{StatusNew, StatusUnderReview, StatusInProgress, StatusImplemented, StatusDeclined, StatusMerged}
}

func (s Status) Valid() bool {
	return slices.Contains(KnownStatuses(), s)
}

const (
	MinScore = 0
	MaxScore = 5
)

// Suggestion is the aggregate root. Comments, activity, merge refs and
// attachments are owned by it and never stored on their own.
type Suggestion struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Author        string                `json:"author"`
	AuthorID      *string               `json:"authorId"`
	IsAnonymous   bool                  `json:"isAnonymous"`
	Status        Status                `json:"status"`
	EffortScore   int                   `json:"effortScore"`
	ImpactScore   int                   `json:"impactScore"`
	PriorityScore int                   `json:"priorityScore"`
	Departments   []string              `json:"departments"`
	Votes         int                   `json:"votes"`
	Voters        []string              `json:"voters"`
	Comments      []Comment             `json:"comments"`
	Activity      []Activity            `json:"activity"`
	MergedWith    []MergedSuggestionRef `json:"mergedWith"`
	Attachments   []Attachment          `json:"attachments"`
	IsLocked      bool                  `json:"isLocked"`
	IsPinned      bool                  `json:"isPinned"`
	Timestamp     time.Time             `json:"timestamp"`

	// Version is the store's concurrency token (ArangoDB _rev, Postgres
	// version column). It never leaves the process.
	Version string `json:"-"`
}

// PriorityScoreFor derives the priority from effort and impact scores.
func PriorityScoreFor(effort, impact int) int {
	return (6 - effort) * impact
}

func (s *Suggestion) HasVoter(userID string) bool {
	return slices.Contains(s.Voters, userID)
}

// ToggleVote flips the user's vote and reports whether it is now cast.
func (s *Suggestion) ToggleVote(userID string) bool {
	if i := slices.Index(s.Voters, userID); i >= 0 {
		s.Voters = slices.Delete(s.Voters, i, i+1)
		s.Votes = max(s.Votes-1, 0)
		return false
	}
	s.Voters = append(s.Voters, userID)
	s.Votes++
	return true
}

func (s *Suggestion) FindComment(commentID string) (int, *Comment) {
	for i := range s.Comments {
		if s.Comments[i].ID == commentID {
			return i, &s.Comments[i]
		}
	}
	return -1, nil
}

// HasMergeFrom reports whether a merge activity for sourceID was already
// appended, which makes a retried merge skip the fold.
func (s *Suggestion) HasMergeFrom(sourceID string) bool {
	for _, a := range s.Activity {
		if a.Type == ActivityTypeMerge && a.SourceID != nil && *a.SourceID == sourceID {
			return true
		}
	}
	return false
}

// IsAuthoredBy reports whether userID created the suggestion. Anonymous
// suggestions still record their author for ownership checks.
func (s *Suggestion) IsAuthoredBy(userID string) bool {
	return userID != "" && s.AuthorID != nil && *s.AuthorID == userID
}

// Normalize replaces nil collections with empty ones.
func (s *Suggestion) Normalize() {
	if s.Departments == nil {
		s.Departments = []string{}
	}
	if s.Voters == nil {
		s.Voters = []string{}
	}
	if s.Comments == nil {
		s.Comments = []Comment{}
	}
	if s.Activity == nil {
		s.Activity = []Activity{}
	}
	if s.MergedWith == nil {
		s.MergedWith = []MergedSuggestionRef{}
	}
	if s.Attachments == nil {
		s.Attachments = []Attachment{}
	}
	if s.Votes < 0 {
		s.Votes = 0
	}
	for i := range s.Comments {
		s.Comments[i].normalize()
	}
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s Suggestion) Clone() Suggestion {
	out := s
	out.AuthorID = clonePtr(s.AuthorID)
	out.Departments = slices.Clone(s.Departments)
	out.Voters = slices.Clone(s.Voters)
	out.Attachments = slices.Clone(s.Attachments)
	out.MergedWith = slices.Clone(s.MergedWith)
	if s.Comments != nil {
		out.Comments = make([]Comment, len(s.Comments))
		for i, c := range s.Comments {
			out.Comments[i] = c.Clone()
		}
	}
	if s.Activity != nil {
		out.Activity = make([]Activity, len(s.Activity))
		for i, a := range s.Activity {
			out.Activity[i] = a.Clone()
		}
	}
	return out
}

type MergedSuggestionRef struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
