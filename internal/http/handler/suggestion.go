package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/service"
)

// Searcher is satisfied by *search.Service.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]model.Suggestion, error)
}

type SuggestionHandler struct {
	suggestions service.SuggestionService
	searcher    Searcher
	production  bool
}

func NewSuggestionHandler(suggestions service.SuggestionService, searcher Searcher, production bool) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, searcher: searcher, production: production}
}

func (h *SuggestionHandler) List(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, h.production)
		return
	}

	filter := service.ListFilter{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.Status(raw)
		filter.Status = &status
	}

	list, err := h.suggestions.List(c.Request.Context(), p, filter)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponses(list, p))
}

func (h *SuggestionHandler) Search(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, h.production)
		return
	}

	q := search.Query{Text: strings.TrimSpace(c.Query("q"))}
	if raw := c.Query("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 0 {
			writeError(c, fmt.Errorf("%w: limit must be a non-negative integer", service.ErrInvalidInput), h.production)
			return
		}
		q.Limit = limit
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.Status(raw)
		q.Status = &status
	}

	results, err := h.searcher.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponses(results, p))
}

func (h *SuggestionHandler) Get(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	sg, err := h.suggestions.Get(ctx, p, id)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *SuggestionHandler) Create(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	ctx := c.Request.Context()

	var req dto.CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, err := h.suggestions.Create(ctx, p, service.CreateSuggestionInput{
		Title:       req.Title,
		Description: req.Description,
		IsAnonymous: req.IsAnonymous,
		Departments: req.Departments,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusCreated, dto.ToSuggestionResponse(sg, p))
}

func (h *SuggestionHandler) Update(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	var req dto.UpdateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, err := h.suggestions.Update(ctx, p, id, service.UpdateSuggestionInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		EffortScore: req.EffortScore,
		ImpactScore: req.ImpactScore,
		Departments: req.Departments,
	})
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *SuggestionHandler) Delete(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	if err := h.suggestions.Delete(ctx, p, id); err != nil {
		writeError(c, err, h.production)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SuggestionHandler) Vote(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	sg, err := h.suggestions.ToggleVote(ctx, p, id)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *SuggestionHandler) Lock(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	var req dto.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, err := h.suggestions.SetLocked(ctx, p, id, *req.IsLocked)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *SuggestionHandler) Pin(c *gin.Context) {
	p, ctx, id, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	var req dto.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, err := h.suggestions.SetPinned(ctx, p, id, *req.IsPinned)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}
