package search

import (
	"strings"

	"basegraph.app/suggestbox/internal/model"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Query describes a search request.
type Query struct {
	Text   string
	Status *model.Status
	Limit  int
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultLimit
	case q.Limit > maxLimit:
		return maxLimit
	default:
		return q.Limit
	}
}

// Engine is a full-text index over suggestions. Search returns matching
// suggestion ids, best match first.
type Engine interface {
	Healthy() bool
	Search(q Query) ([]string, error)
	Upsert(records []Record) error
	Delete(id string) error
}

// Record is the data we index for a suggestion.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Comments    []string `json:"comments"`
	Status      string   `json:"status"`
	Departments []string `json:"departments"`
	Votes       int      `json:"votes"`
	IsPinned    bool     `json:"isPinned"`
	Timestamp   int64    `json:"timestamp"`
}

func RecordFrom(s model.Suggestion) Record {
	comments := make([]string, 0, len(s.Comments))
	for _, c := range s.Comments {
		if text := strings.TrimSpace(c.Text); text != "" {
			comments = append(comments, text)
		}
	}
	departments := s.Departments
	if departments == nil {
		departments = []string{}
	}
	return Record{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Comments:    comments,
		Status:      string(s.Status),
		Departments: departments,
		Votes:       s.Votes,
		IsPinned:    s.IsPinned,
		Timestamp:   s.Timestamp.Unix(),
	}
}

// matches is the fallback matcher: a case-insensitive substring test on
// title, description and comment text.
func matches(s model.Suggestion, q Query) bool {
	if q.Status != nil && s.Status != *q.Status {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(s.Title), needle) || strings.Contains(strings.ToLower(s.Description), needle) {
		return true
	}
	for _, c := range s.Comments {
		if strings.Contains(strings.ToLower(c.Text), needle) {
			return true
		}
	}
	return false
}
