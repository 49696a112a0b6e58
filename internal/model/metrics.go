package model

import "time"

type MetricsReport struct {
	Total                    int                       `json:"total"`
	GeneratedAt              time.Time                 `json:"generatedAt"`
	StatusCounts             map[string]int            `json:"statusCounts"`
	TopVoted                 []SuggestionSummary       `json:"topVoted"`
	TopCommented             []SuggestionSummary       `json:"topCommented"`
	AnonymousRatio           AnonymousRatio            `json:"anonymousRatio"`
	DepartmentCounts         map[string]int            `json:"departmentCounts"`
	DepartmentImplementation map[string]DepartmentRate `json:"departmentImplementation"`
	ImplementationRate       ImplementationRate        `json:"implementationRate"`
	TimeToImplementation     TimeToImplementation      `json:"timeToImplementation"`
	CreationTrend            []MonthCount              `json:"creationTrend"`
	ActivityHeatmap          ActivityHeatmap           `json:"activityHeatmap"`
}

type SuggestionSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Votes    int    `json:"votes"`
	Comments int    `json:"comments"`
}

type AnonymousRatio struct {
	Anonymous int     `json:"anonymous"`
	Named     int     `json:"named"`
	Ratio     float64 `json:"ratio"`
}

type DepartmentRate struct {
	Total       int     `json:"total"`
	Implemented int     `json:"implemented"`
	Declined    int     `json:"declined"`
	Rate        float64 `json:"rate"`
}

type ImplementationRate struct {
	Implemented int     `json:"implemented"`
	Declined    int     `json:"declined"`
	Rate        float64 `json:"rate"`
}

// TimeToImplementation averages over suggestions with a recorded status
// change to Implemented. Implemented suggestions lacking that trail are
// counted in Excluded instead.
type TimeToImplementation struct {
	AverageDays float64 `json:"averageDays"`
	SampleSize  int     `json:"sampleSize"`
	Excluded    int     `json:"excluded"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ActivityHeatmap buckets events in UTC. Day 0 is Sunday.
type ActivityHeatmap struct {
	ByHour      [24]int    `json:"byHour"`
	ByDayOfWeek [7]int     `json:"byDayOfWeek"`
	Matrix      [7][24]int `json:"matrix"`
	Events      int        `json:"events"`
}
