package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/service"
)

type MergeHandler struct {
	merges     service.MergeService
	production bool
}

func NewMergeHandler(merges service.MergeService, production bool) *MergeHandler {
	return &MergeHandler{merges: merges, production: production}
}

// Merge folds the suggestion named in the body into the :id suggestion.
func (h *MergeHandler) Merge(c *gin.Context) {
	p, ctx, targetID, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}
	if !p.IsAdmin {
		writeError(c, fmt.Errorf("%w: only administrators can merge suggestions", service.ErrForbidden), h.production)
		return
	}

	var req dto.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	merged, err := h.merges.Merge(ctx, p, targetID, req.SourceID)
	if err != nil {
		writeError(c, err, h.production)
		return
	}

	slog.InfoContext(ctx, "merge completed via api", "source_id", req.SourceID)
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(merged, p))
}

type MetricsHandler struct {
	metrics    service.MetricsService
	production bool
}

func NewMetricsHandler(metrics service.MetricsService, production bool) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, production: production}
}

func (h *MetricsHandler) Dashboard(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, h.production)
		return
	}

	report, err := h.metrics.Dashboard(c.Request.Context(), p)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, report)
}
