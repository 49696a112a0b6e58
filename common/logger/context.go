package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log line and span started under a context.
// Handlers set the suggestion and user once; the worker sets message fields.
type LogFields struct {
	SuggestionID *string
	CommentID    *string
	UserID       *string
	MessageID    *string // redis stream entry id
	EventType    *string // e.g. "suggestion.merged"
	Component    string  // e.g. "suggestbox.worker.sweeper"
}

// WithLogFields merges fields into ctx. Non-nil values in fields win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	if fields.SuggestionID != nil {
		merged.SuggestionID = fields.SuggestionID
	}
	if fields.CommentID != nil {
		merged.CommentID = fields.CommentID
	}
	if fields.UserID != nil {
		merged.UserID = fields.UserID
	}
	if fields.MessageID != nil {
		merged.MessageID = fields.MessageID
	}
	if fields.EventType != nil {
		merged.EventType = fields.EventType
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// Attrs returns the set fields as slog attributes, in a fixed order.
func (f LogFields) Attrs() []slog.Attr {
	var attrs []slog.Attr
	add := func(key string, v *string) {
		if v != nil {
			attrs = append(attrs, slog.String(key, *v))
		}
	}
	add("suggestion_id", f.SuggestionID)
	add("comment_id", f.CommentID)
	add("user_id", f.UserID)
	add("message_id", f.MessageID)
	add("event_type", f.EventType)
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}
