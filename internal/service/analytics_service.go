package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/pkg/config"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
)

const analyticsOverviewCacheKey = "analytics:overview"

type analyticsSubmissionRepository interface {
	ListAll(ctx context.Context) ([]models.Submission, error)
}

type analyticsTransactionRepository interface {
	ListCompleted(ctx context.Context) ([]models.Transaction, error)
}

type analyticsProfileRepository interface {
	ListAuthorsWithSubmissions(ctx context.Context) ([]models.AuthorRecord, error)
	CountAuthors(ctx context.Context) (int, error)
}

// AnalyticsService aggregates dashboard figures from transactional data.
type AnalyticsService struct {
	submissions  analyticsSubmissionRepository
	transactions analyticsTransactionRepository
	profiles     analyticsProfileRepository
	cache        *CacheService
	cfg          config.AnalyticsConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(submissions analyticsSubmissionRepository, transactions analyticsTransactionRepository, profiles analyticsProfileRepository, cache *CacheService, cfg config.AnalyticsConfig, logger *zap.Logger) *AnalyticsService {
	if cfg.TrendMonths <= 0 {
		cfg.TrendMonths = 6
	}
	if cfg.TopAuthors <= 0 {
		cfg.TopAuthors = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		submissions:  submissions,
		transactions: transactions,
		profiles:     profiles,
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Overview assembles the full dashboard payload, served from cache when
// available.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.AnalyticsOverview, error) {
	if s.cache.Enabled() {
		var cached models.AnalyticsOverview
		hit, err := s.cache.Get(ctx, analyticsOverviewCacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	submissions, err := s.submissions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	transactions, err := s.transactions.ListCompleted(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transactions")
	}
	authors, err := s.profiles.ListAuthorsWithSubmissions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load author records")
	}
	totalAuthors, err := s.profiles.CountAuthors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count authors")
	}

	performance := BuildAuthorPerformance(authors)
	overview := &models.AnalyticsOverview{
		Revenue:            BuildRevenueSeries(transactions),
		MonthlyTrends:      BuildSubmissionTrends(submissions, s.cfg.TrendMonths),
		AuthorPerformance:  performance,
		TopAuthors:         TopAuthors(performance, s.cfg.TopAuthors),
		StatusDistribution: BuildStatusDistribution(submissions),
		PlatformStats:      buildPlatformStats(submissions, transactions, totalAuthors),
		GeneratedAt:        s.now().UTC(),
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, analyticsOverviewCacheKey, overview, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return overview, nil
}

// Invalidate drops the cached overview so the next read recomputes it.
func (s *AnalyticsService) Invalidate(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsOverviewCacheKey); err != nil {
		s.logger.Warn("analytics invalidation failed", zap.Error(err))
	}
}

// BuildRevenueSeries groups completed transactions into calendar-month
// buckets in chronological order. Growth is the percentage change against
// the previous bucket; the first bucket reports 0. Months with no
// transactions produce no bucket.
func BuildRevenueSeries(transactions []models.Transaction) []models.RevenuePoint {
	type bucket struct {
		label string
		total float64
	}
	index := map[string]int{}
	var buckets []bucket
	for _, txn := range transactions {
		label := txn.CreatedAt.Format(models.MonthLabelLayout)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, bucket{label: label})
		}
		buckets[i].total += txn.Amount
	}
	points := make([]models.RevenuePoint, 0, len(buckets))
	for i, b := range buckets {
		var growth float64
		if i > 0 && buckets[i-1].total != 0 {
			growth = roundToOne((b.total - buckets[i-1].total) / buckets[i-1].total * 100)
		}
		points = append(points, models.RevenuePoint{Month: b.label, Revenue: b.total, Growth: growth})
	}
	return points
}

// BuildSubmissionTrends groups submissions into calendar-month buckets and
// returns the most recent months in chronological order.
func BuildSubmissionTrends(submissions []models.Submission, months int) []models.SubmissionTrendPoint {
	type key struct {
		year  int
		month time.Month
	}
	counts := map[key]*models.SubmissionTrendPoint{}
	var keys []key
	for _, sub := range submissions {
		k := key{year: sub.SubmittedAt.Year(), month: sub.SubmittedAt.Month()}
		point, ok := counts[k]
		if !ok {
			point = &models.SubmissionTrendPoint{
				Month: time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format(models.MonthLabelLayout),
			}
			counts[k] = point
			keys = append(keys, k)
		}
		point.Submissions++
		switch sub.Status {
		case models.StatusPublished:
			point.Published++
		case models.StatusAccepted:
			point.Accepted++
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	if months > 0 && len(keys) > months {
		keys = keys[len(keys)-months:]
	}
	points := make([]models.SubmissionTrendPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, *counts[k])
	}
	return points
}

// BuildAuthorPerformance computes per-author submission outcomes. Success
// rate is the rounded percentage of published plus accepted submissions;
// authors without submissions score 0.
func BuildAuthorPerformance(records []models.AuthorRecord) []models.AuthorPerformance {
	performance := make([]models.AuthorPerformance, 0, len(records))
	for _, record := range records {
		perf := models.AuthorPerformance{
			Name:             record.Profile.DisplayName(),
			Institution:      "N/A",
			TotalSubmissions: len(record.Submissions),
		}
		if record.Profile.Institution != nil && *record.Profile.Institution != "" {
			perf.Institution = *record.Profile.Institution
		}
		for _, sub := range record.Submissions {
			switch sub.Status {
			case models.StatusPublished:
				perf.Published++
			case models.StatusAccepted:
				perf.Accepted++
			}
		}
		if perf.TotalSubmissions > 0 {
			perf.SuccessRate = int(math.Round(float64(perf.Published+perf.Accepted) / float64(perf.TotalSubmissions) * 100))
		}
		performance = append(performance, perf)
	}
	return performance
}

// TopAuthors returns the leading authors ranked by published count. The
// sort is stable, so authors tied on published count keep their input
// order.
func TopAuthors(performance []models.AuthorPerformance, limit int) []models.AuthorPerformance {
	ranked := make([]models.AuthorPerformance, len(performance))
	copy(ranked, performance)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Published > ranked[j].Published
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// BuildStatusDistribution counts submissions per status in first-seen order.
func BuildStatusDistribution(submissions []models.Submission) []models.StatusCount {
	index := map[string]int{}
	var counts []models.StatusCount
	for _, sub := range submissions {
		i, ok := index[sub.Status]
		if !ok {
			i = len(counts)
			index[sub.Status] = i
			counts = append(counts, models.StatusCount{Status: sub.Status})
		}
		counts[i].Count++
	}
	return counts
}

func buildPlatformStats(submissions []models.Submission, transactions []models.Transaction, totalAuthors int) models.PlatformStats {
	stats := models.PlatformStats{TotalAuthors: totalAuthors}
	for _, txn := range transactions {
		stats.TotalRevenue += txn.Amount
	}
	var outcomes int
	var publicationDays float64
	var publishedWithDates int
	for _, sub := range submissions {
		switch sub.Status {
		case models.StatusPublished:
			outcomes++
			if sub.PublishedAt != nil {
				publicationDays += sub.PublishedAt.Sub(sub.SubmittedAt).Hours() / 24
				publishedWithDates++
			}
		case models.StatusAccepted:
			outcomes++
		}
	}
	if len(submissions) > 0 {
		stats.SuccessRate = int(math.Round(float64(outcomes) / float64(len(submissions)) * 100))
	}
	if publishedWithDates > 0 {
		stats.AvgPublicationTimeDays = roundToOne(publicationDays / float64(publishedWithDates))
	}
	return stats
}

func roundToOne(v float64) float64 {
	return math.Round(v*10) / 10
}
