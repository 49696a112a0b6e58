package model

import "time"

type EventType string

const (
	EventTypeSuggestionCreated   EventType = "suggestion.created"
	EventTypeSuggestionUpdated   EventType = "suggestion.updated"
	EventTypeSuggestionDeleted   EventType = "suggestion.deleted"
	EventTypeSuggestionVoted     EventType = "suggestion.voted"
	EventTypeSuggestionCommented EventType = "suggestion.commented"
	EventTypeSuggestionMerged    EventType = "suggestion.merged"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeSuggestionCreated, EventTypeSuggestionUpdated, EventTypeSuggestionDeleted,
		EventTypeSuggestionVoted, EventTypeSuggestionCommented, EventTypeSuggestionMerged:
		return true
	}
	return false
}

// Event is published after every successful mutation. Consumers treat it
// as a hint to re-read the suggestion, not as the state itself.
type Event struct {
	Type         EventType `json:"type"`
	SuggestionID string    `json:"suggestionId"`
	RelatedID    string    `json:"relatedId,omitempty"`
	ActorID      string    `json:"actorId,omitempty"`
	TraceID      string    `json:"traceId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}
