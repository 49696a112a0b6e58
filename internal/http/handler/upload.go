package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/suggestbox/internal/http/dto"
	"basegraph.app/suggestbox/internal/service"
)

type UploadHandler struct {
	attachments service.AttachmentService
	production  bool
}

func NewUploadHandler(attachments service.AttachmentService, production bool) *UploadHandler {
	return &UploadHandler{attachments: attachments, production: production}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	p, err := principal(c)
	if err != nil {
		writeError(c, err, h.production)
		return
	}

	var req dto.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err), h.production)
		return
	}

	att, err := h.attachments.Upload(c.Request.Context(), p, service.UploadInput{
		Name:        req.Name,
		Size:        req.Size,
		ContentType: req.ContentType,
		Data:        req.Base64Data,
	})
	if err != nil {
		writeError(c, err, h.production)
		return
	}
	c.JSON(http.StatusCreated, att)
}
