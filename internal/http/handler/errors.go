package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/http/middleware"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
)

var statusByKind = map[model.ErrorKind]int{
	model.ErrorKindUnauthenticated: http.StatusUnauthorized,
	model.ErrorKindForbidden:       http.StatusForbidden,
	model.ErrorKindNotFound:        http.StatusNotFound,
	model.ErrorKindInvalidInput:    http.StatusBadRequest,
	model.ErrorKindConflict:        http.StatusConflict,
	model.ErrorKindUpstream:        http.StatusInternalServerError,
}

// writeError is the single place service errors become HTTP responses.
// Client errors echo the service message; upstream failures get a generic
// one. The raw cause is only attached outside production.
func writeError(c *gin.Context, err error, production bool) {
	ctx := c.Request.Context()
	kind := service.KindOf(err)
	status := statusByKind[kind]

	resp := dto.ErrorResponse{Message: err.Error(), Code: kind}
	if kind == model.ErrorKindUpstream {
		resp.Message = "something went wrong, please try again later"
		slog.ErrorContext(ctx, "request failed", "error", err, "path", c.FullPath())
	}
	if !production {
		resp.Error = err.Error()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: malformed request body: %v", service.ErrInvalidInput, err)
}

// principal returns the caller set by middleware.RequirePrincipal. Routes
// mounted without that middleware get ErrUnauthenticated.
func principal(c *gin.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return model.Principal{}, service.ErrUnauthenticated
	}
	return p, nil
}

// beginSuggestion resolves the principal and the :id param, and tags the
// request context with the suggestion id for logging.
func beginSuggestion(c *gin.Context, production bool) (model.Principal, context.Context, string, bool) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, production)
		return model.Principal{}, nil, "", false
	}
	id := c.Param("id")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{SuggestionID: &id})
	c.Request = c.Request.WithContext(ctx)
	return p, ctx, id, true
}
