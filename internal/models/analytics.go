package models

import "time"

// MonthLabelLayout formats bucket keys, e.g. "Jan 2026".
const MonthLabelLayout = "Jan 2006"

// RevenuePoint is one calendar-month revenue bucket. Growth is the
// period-over-period percentage change versus the previous present bucket
// (0 for the first bucket).
type RevenuePoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Growth  float64 `json:"growth"`
}

// SubmissionTrendPoint is one calendar-month submission bucket.
type SubmissionTrendPoint struct {
	Month       string `json:"month"`
	Submissions int    `json:"submissions"`
	Published   int    `json:"published"`
	Accepted    int    `json:"accepted"`
}

// AuthorPerformance summarizes one author's submission outcomes.
type AuthorPerformance struct {
	Name             string `json:"name"`
	Institution      string `json:"institution"`
	TotalSubmissions int    `json:"total_submissions"`
	Published        int    `json:"published"`
	Accepted         int    `json:"accepted"`
	SuccessRate      int    `json:"success_rate"`
}

// PlatformStats are the headline dashboard figures.
type PlatformStats struct {
	TotalRevenue           float64 `json:"total_revenue"`
	TotalAuthors           int     `json:"total_authors"`
	AvgPublicationTimeDays float64 `json:"avg_publication_time_days"`
	SuccessRate            int     `json:"success_rate"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// AnalyticsOverview is the full dashboard payload.
type AnalyticsOverview struct {
	Revenue            []RevenuePoint         `json:"revenue"`
	MonthlyTrends      []SubmissionTrendPoint `json:"monthly_trends"`
	AuthorPerformance  []AuthorPerformance    `json:"author_performance"`
	TopAuthors         []AuthorPerformance    `json:"top_authors"`
	StatusDistribution []StatusCount          `json:"status_distribution"`
	PlatformStats      PlatformStats          `json:"platform_stats"`
	GeneratedAt        time.Time              `json:"generated_at"`
}
