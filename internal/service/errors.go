package service

import (
	"errors"

	"basegraph.app/suggestbox/internal/auth"
	"basegraph.app/suggestbox/internal/model"
)

var (
	ErrUnauthenticated    = auth.ErrUnauthenticated
	ErrForbidden          = errors.New("forbidden")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrSuggestionLocked   = errors.New("suggestion is locked")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("suggestion was modified concurrently, please retry")
)

// KindOf classifies err into the error kind exposed to clients. Anything
// unrecognised is an upstream failure.
func KindOf(err error) model.ErrorKind {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return model.ErrorKindUnauthenticated
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrSuggestionLocked):
		return model.ErrorKindForbidden
	case errors.Is(err, ErrSuggestionNotFound), errors.Is(err, ErrCommentNotFound):
		return model.ErrorKindNotFound
	case errors.Is(err, ErrInvalidInput):
		return model.ErrorKindInvalidInput
	case errors.Is(err, ErrConflict):
		return model.ErrorKindConflict
	default:
		return model.ErrorKindUpstream
	}
}
