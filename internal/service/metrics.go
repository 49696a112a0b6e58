package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/suggestbox/internal/metrics"
	"basegraph.app/suggestbox/internal/model"
	"basegraph.app/suggestbox/internal/store"
)

type MetricsService interface {
	Dashboard(ctx context.Context, p model.Principal) (model.MetricsReport, error)
}

type metricsService struct {
	suggestions store.SuggestionStore
	now         func() time.Time
}

func NewMetricsService(suggestions store.SuggestionStore, now func() time.Time) MetricsService {
	return &metricsService{suggestions: suggestions, now: now}
}

func (s *metricsService) Dashboard(ctx context.Context, p model.Principal) (model.MetricsReport, error) {
	if !p.IsAdmin {
		return model.MetricsReport{}, fmt.Errorf("%w: only administrators can view metrics", ErrForbidden)
	}

	all, err := s.suggestions.FindAll(ctx)
	if err != nil {
		return model.MetricsReport{}, fmt.Errorf("listing suggestions: %w", err)
	}

	start := s.now()
	report := metrics.Compute(all, metrics.Options{Now: start})
	slog.DebugContext(ctx, "metrics computed",
		"suggestions", report.Total,
		"duration_ms", s.now().Sub(start).Milliseconds())
	return report, nil
}
