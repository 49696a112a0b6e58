package service

import (
	"time"

	"basegraph.app/suggestbox/common/blob"
	"basegraph.app/suggestbox/common/id"
	"basegraph.app/suggestbox/internal/search"
	"basegraph.app/suggestbox/internal/store"
)

type ServicesConfig struct {
	Stores         *store.Stores
	Blobs          blob.Store
	Events         EventPublisher
	Search         *search.Service
	NewID          id.Generator
	Now            func() time.Time
	MaxAttempts    int
	UploadMaxBytes int64
}

// Services builds the service layer over one set of dependencies. All
// accessors are cheap; services hold no state of their own.
type Services struct {
	cfg ServicesConfig
	tx  TxRunner
}

func NewServices(cfg ServicesConfig) *Services {
	if cfg.NewID == nil {
		cfg.NewID = id.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = DefaultUploadMaxBytes
	}
	if cfg.Search == nil {
		cfg.Search = search.NewService(nil, cfg.Stores.Suggestions())
	}
	return &Services{
		cfg: cfg,
		tx:  NewTxRunner(cfg.Stores.Suggestions(), cfg.MaxAttempts),
	}
}

func (s *Services) Suggestions() SuggestionService {
	return NewSuggestionService(s.cfg.Stores.Suggestions(), s.tx, s.cfg.Events, s.cfg.NewID, s.cfg.Now)
}

func (s *Services) Comments() CommentService {
	return NewCommentService(s.tx, s.cfg.Events, s.cfg.NewID, s.cfg.Now)
}

func (s *Services) Merge() MergeService {
	return NewMergeService(s.cfg.Stores.Suggestions(), s.cfg.Events, s.cfg.NewID, s.cfg.Now, s.cfg.MaxAttempts)
}

func (s *Services) Metrics() MetricsService {
	return NewMetricsService(s.cfg.Stores.Suggestions(), s.cfg.Now)
}

func (s *Services) Attachments() AttachmentService {
	return NewAttachmentService(s.cfg.Blobs, s.cfg.UploadMaxBytes)
}

func (s *Services) Search() *search.Service {
	return s.cfg.Search
}
