// Package metrics computes the admin dashboard report. Every section is
// derived independently from the full suggestion list; nothing is cached.
package metrics

import (
	"sort"
	"time"

	"basegraph.app/suggestbox/internal/model"
)

const (
	DefaultTopN = 5

	// UnassignedDepartment buckets suggestions that name no department.
	UnassignedDepartment = "Unassigned"
)

type Options struct {
	TopN int
	Now  time.Time
}

func Compute(suggestions []model.Suggestion, opts Options) model.MetricsReport {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	return model.MetricsReport{
		Total:                    len(suggestions),
		GeneratedAt:              opts.Now.UTC(),
		StatusCounts:             statusCounts(suggestions),
		TopVoted:                 topBy(suggestions, opts.TopN, func(s model.Suggestion) int { return s.Votes }),
		TopCommented:             topBy(suggestions, opts.TopN, func(s model.Suggestion) int { return len(s.Comments) }),
		AnonymousRatio:           anonymousRatio(suggestions),
		DepartmentCounts:         departmentCounts(suggestions),
		DepartmentImplementation: departmentImplementation(suggestions),
		ImplementationRate:       implementationRate(suggestions),
		TimeToImplementation:     timeToImplementation(suggestions),
		CreationTrend:            creationTrend(suggestions),
		ActivityHeatmap:          activityHeatmap(suggestions),
	}
}

// statusCounts zero-fills every known status and keeps unknown values
// under their raw key.
func statusCounts(suggestions []model.Suggestion) map[string]int {
	counts := make(map[string]int, len(model.KnownStatuses()))
	for _, st := range model.KnownStatuses() {
		counts[string(st)] = 0
	}
	for _, s := range suggestions {
		counts[string(s.Status)]++
	}
	return counts
}

func topBy(suggestions []model.Suggestion, n int, key func(model.Suggestion) int) []model.SuggestionSummary {
	ranked := make([]model.Suggestion, len(suggestions))
	copy(ranked, suggestions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return key(ranked[i]) > key(ranked[j])
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]model.SuggestionSummary, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, model.SuggestionSummary{
			ID:       s.ID,
			Title:    s.Title,
			Status:   s.Status,
			Votes:    s.Votes,
			Comments: len(s.Comments),
		})
	}
	return out
}

func anonymousRatio(suggestions []model.Suggestion) model.AnonymousRatio {
	var r model.AnonymousRatio
	for _, s := range suggestions {
		if s.IsAnonymous {
			r.Anonymous++
		} else {
			r.Named++
		}
	}
	r.Ratio = ratio(r.Anonymous, len(suggestions))
	return r
}

func departmentsOf(s model.Suggestion) []string {
	if len(s.Departments) == 0 {
		return []string{UnassignedDepartment}
	}
	return s.Departments
}

func departmentCounts(suggestions []model.Suggestion) map[string]int {
	counts := make(map[string]int)
	for _, s := range suggestions {
		for _, d := range departmentsOf(s) {
			counts[d]++
		}
	}
	return counts
}

func departmentImplementation(suggestions []model.Suggestion) map[string]model.DepartmentRate {
	rates := make(map[string]model.DepartmentRate)
	for _, s := range suggestions {
		for _, d := range departmentsOf(s) {
			r := rates[d]
			r.Total++
			switch s.Status {
			case model.StatusImplemented:
				r.Implemented++
			case model.StatusDeclined:
				r.Declined++
			}
			rates[d] = r
		}
	}
	for d, r := range rates {
		r.Rate = ratio(r.Implemented, r.Implemented+r.Declined)
		rates[d] = r
	}
	return rates
}

func implementationRate(suggestions []model.Suggestion) model.ImplementationRate {
	var r model.ImplementationRate
	for _, s := range suggestions {
		switch s.Status {
		case model.StatusImplemented:
			r.Implemented++
		case model.StatusDeclined:
			r.Declined++
		}
	}
	r.Rate = ratio(r.Implemented, r.Implemented+r.Declined)
	return r
}

func timeToImplementation(suggestions []model.Suggestion) model.TimeToImplementation {
	var (
		out   model.TimeToImplementation
		total float64
	)
	for _, s := range suggestions {
		if s.Status != model.StatusImplemented {
			continue
		}
		at, ok := implementedAt(s)
		if !ok {
			out.Excluded++
			continue
		}
		total += at.Sub(s.Timestamp).Hours() / 24
		out.SampleSize++
	}
	if out.SampleSize > 0 {
		out.AverageDays = total / float64(out.SampleSize)
	}
	return out
}

// implementedAt returns the timestamp of the latest status change to
// Implemented.
func implementedAt(s model.Suggestion) (time.Time, bool) {
	for i := len(s.Activity) - 1; i >= 0; i-- {
		a := s.Activity[i]
		if a.Type == model.ActivityTypeStatus && a.To != nil && *a.To == model.StatusImplemented {
			return a.Timestamp, true
		}
	}
	return time.Time{}, false
}

func creationTrend(suggestions []model.Suggestion) []model.MonthCount {
	byMonth := make(map[string]int)
	for _, s := range suggestions {
		byMonth[s.Timestamp.UTC().Format("2006-01")]++
	}

	out := make([]model.MonthCount, 0, len(byMonth))
	for month, count := range byMonth {
		out = append(out, model.MonthCount{Month: month, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func activityHeatmap(suggestions []model.Suggestion) model.ActivityHeatmap {
	var h model.ActivityHeatmap
	add := func(t time.Time) {
		t = t.UTC()
		day, hour := int(t.Weekday()), t.Hour()
		h.ByHour[hour]++
		h.ByDayOfWeek[day]++
		h.Matrix[day][hour]++
		h.Events++
	}
	for _, s := range suggestions {
		add(s.Timestamp)
		for _, c := range s.Comments {
			add(c.Timestamp)
		}
		for _, a := range s.Activity {
			add(a.Timestamp)
		}
	}
	return h
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
