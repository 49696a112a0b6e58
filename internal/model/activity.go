package model

import "time"

type ActivityType string

const (
	ActivityTypeLock   ActivityType = "lock"
	ActivityTypeUnlock ActivityType = "unlock"
	ActivityTypePin    ActivityType = "pin"
	ActivityTypeUnpin  ActivityType = "unpin"
	ActivityTypeStatus ActivityType = "status"
	ActivityTypeMerge  ActivityType = "merge"
)

// Activity is an append-only audit entry. From/To are set for status
// changes, SourceID/SourceTitle for merges.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Timestamp   time.Time    `json:"timestamp"`
	By          string       `json:"by"`
	UserID      string       `json:"userId"`
	From        *Status      `json:"from,omitempty"`
	To          *Status      `json:"to,omitempty"`
	SourceID    *string      `json:"sourceId,omitempty"`
	SourceTitle *string      `json:"sourceTitle,omitempty"`
}

func (a Activity) Clone() Activity {
	out := a
	out.From = clonePtr(a.From)
	out.To = clonePtr(a.To)
	out.SourceID = clonePtr(a.SourceID)
	out.SourceTitle = clonePtr(a.SourceTitle)
	return out
}
