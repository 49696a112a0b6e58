package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/service"
)

type CommentHandler struct {
	comments   service.CommentService
	production bool
}

func NewCommentHandler(comments service.CommentService, production bool) *CommentHandler {
	return &CommentHandler{comments: comments, production: production}
}

func (h *CommentHandler) Add(c *gin.Context) {
	p, ctx, suggestionID, ok := beginSuggestion(c, h.production)
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, comment, err := h.comments.Add(ctx, p, suggestionID, service.AddCommentInput{
		Text:        req.Text,
		IsAnonymous: req.IsAnonymous,
		Attachments: req.Attachments,
	})
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusCreated, dto.AddCommentResponse{
		Suggestion: dto.ToSuggestionResponse(sg, p),
		Comment:    dto.ToCommentResponse(*comment, p),
	})
}

func (h *CommentHandler) Edit(c *gin.Context) {
	p, ctx, suggestionID, commentID, ok := h.begin(c)
	if !ok {
		return
	}

	var req dto.EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	sg, err := h.comments.Edit(ctx, p, suggestionID, commentID, req.Text)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	p, ctx, suggestionID, commentID, ok := h.begin(c)
	if !ok {
		return
	}

	sg, err := h.comments.Delete(ctx, p, suggestionID, commentID)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *CommentHandler) Like(c *gin.Context) {
	p, ctx, suggestionID, commentID, ok := h.begin(c)
	if !ok {
		return
	}

	sg, err := h.comments.ToggleLike(ctx, p, suggestionID, commentID)
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusOK, dto.ToSuggestionResponse(sg, p))
}

func (h *CommentHandler) begin(c *gin.Context) (model.Principal, context.Context, string, string, bool) {
	p, ctx, suggestionID, ok := beginSuggestion(c, h.production)
	if !ok {
		return model.Principal{}, nil, "", "", false
	}
	commentID := c.Param("commentId")
	ctx = logger.WithLogFields(ctx, logger.LogFields{CommentID: &commentID})
	c.Request = c.Request.WithContext(ctx)
	return p, ctx, suggestionID, commentID, true
}
