package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"basegraph.app/suggestbox/common"
	"basegraph.app/suggestbox/common/blob"
	"basegraph.app/suggestbox/internal/model"
)

const DefaultUploadMaxBytes int64 = 10 << 20

// AllowedContentTypes is the upload allow-list.
var AllowedContentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

type UploadInput struct {
	Name        string
	Size        int64
	ContentType string
	// Data is base64, optionally prefixed with a data URL header.
	Data string
}

type AttachmentService interface {
	Upload(ctx context.Context, p model.Principal, in UploadInput) (model.Attachment, error)
}

type attachmentService struct {
	blobs    blob.Store
	maxBytes int64
}

func NewAttachmentService(blobs blob.Store, maxBytes int64) AttachmentService {
	return &attachmentService{blobs: blobs, maxBytes: maxBytes}
}

func (s *attachmentService) Upload(ctx context.Context, _ model.Principal, in UploadInput) (model.Attachment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Attachment{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if in.Data == "" {
		return model.Attachment{}, fmt.Errorf("%w: file data is required", ErrInvalidInput)
	}
	if in.Size > s.maxBytes {
		return model.Attachment{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}

	contentType := normalizeContentType(in.ContentType)
	if _, ok := AllowedContentTypes[contentType]; !ok {
		return model.Attachment{}, fmt.Errorf("%w: content type %q is not allowed", ErrInvalidInput, in.ContentType)
	}

	data, err := decodeUpload(in.Data)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("%w: file data is not valid base64", ErrInvalidInput)
	}
	if int64(len(data)) > s.maxBytes {
		return model.Attachment{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}
	if len(data) == 0 {
		return model.Attachment{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	_, ext := common.SplitFilename(name)
	objectName := uuid.NewString() + ext

	url, err := s.blobs.Put(ctx, objectName, contentType, data)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("storing upload: %w", err)
	}

	slog.InfoContext(ctx, "attachment uploaded",
		"object", objectName,
		"content_type", contentType,
		"size", len(data),
		"backend", s.blobs.Backend())

	return model.Attachment{
		URL:         url,
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		IsImage:     model.IsImageContentType(contentType),
	}, nil
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// decodeUpload strips an optional "data:<type>;base64," prefix and decodes
// the payload, accepting padded and unpadded encodings.
func decodeUpload(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		if _, payload, ok := strings.Cut(data, ","); ok {
			data = payload
		}
	}
	data = strings.TrimSpace(data)

	if b, err := base64.StdEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
}
