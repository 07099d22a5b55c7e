package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/pkg/config"
)

type fakeAnalyticsSubmissions struct {
	rows []models.Submission
}

func (f *fakeAnalyticsSubmissions) ListAll(context.Context) ([]models.Submission, error) {
	return f.rows, nil
}

type fakeAnalyticsTransactions struct {
	rows []models.Transaction
}

func (f *fakeAnalyticsTransactions) ListCompleted(context.Context) ([]models.Transaction, error) {
	return f.rows, nil
}

type fakeAnalyticsProfiles struct {
	records []models.AuthorRecord
	total   int
}

func (f *fakeAnalyticsProfiles) ListAuthorsWithSubmissions(context.Context) ([]models.AuthorRecord, error) {
	return f.records, nil
}

func (f *fakeAnalyticsProfiles) CountAuthors(context.Context) (int, error) {
	return f.total, nil
}

func monthDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func TestBuildRevenueSeriesGroupsByMonth(t *testing.T) {
	points := BuildRevenueSeries([]models.Transaction{
		{Amount: 100, CreatedAt: monthDate(2026, time.January, 5)},
		{Amount: 50, CreatedAt: monthDate(2026, time.January, 20)},
		{Amount: 30, CreatedAt: monthDate(2026, time.February, 2)},
	})

	require.Len(t, points, 2)
	assert.Equal(t, "Jan 2026", points[0].Month)
	assert.Equal(t, 150.0, points[0].Revenue)
	assert.Equal(t, 0.0, points[0].Growth)
	assert.Equal(t, "Feb 2026", points[1].Month)
	assert.Equal(t, 30.0, points[1].Revenue)
	assert.Equal(t, -80.0, points[1].Growth)
}

func TestBuildRevenueSeriesEmpty(t *testing.T) {
	assert.Empty(t, BuildRevenueSeries(nil))
}

func TestBuildSubmissionTrendsKeepsRecentMonths(t *testing.T) {
	var submissions []models.Submission
	for m := time.January; m <= time.August; m++ {
		submissions = append(submissions, models.Submission{
			Status:      models.StatusUnderReview,
			SubmittedAt: monthDate(2026, m, 3),
		})
	}
	submissions = append(submissions, models.Submission{
		Status:      models.StatusPublished,
		SubmittedAt: monthDate(2026, time.August, 15),
	})

	points := BuildSubmissionTrends(submissions, 6)
	require.Len(t, points, 6)
	assert.Equal(t, "Mar 2026", points[0].Month)
	assert.Equal(t, "Aug 2026", points[5].Month)
	assert.Equal(t, 2, points[5].Submissions)
	assert.Equal(t, 1, points[5].Published)
}

func TestBuildAuthorPerformanceSuccessRate(t *testing.T) {
	institution := "Trinity College"
	records := []models.AuthorRecord{
		{
			Profile: models.UserProfile{FirstName: "Mary", LastName: "Somerville", Institution: &institution},
			Submissions: []models.Submission{
				{Status: models.StatusPublished},
				{Status: models.StatusAccepted},
				{Status: models.StatusRejected},
			},
		},
		{
			Profile: models.UserProfile{FirstName: "New", LastName: "Author"},
		},
	}

	performance := BuildAuthorPerformance(records)
	require.Len(t, performance, 2)
	assert.Equal(t, "Mary Somerville", performance[0].Name)
	assert.Equal(t, "Trinity College", performance[0].Institution)
	assert.Equal(t, 67, performance[0].SuccessRate)
	assert.Equal(t, "N/A", performance[1].Institution)
	assert.Equal(t, 0, performance[1].SuccessRate)
}

func TestTopAuthorsStableTieBreak(t *testing.T) {
	performance := []models.AuthorPerformance{
		{Name: "First", Published: 2},
		{Name: "Second", Published: 5},
		{Name: "Third", Published: 2},
		{Name: "Fourth", Published: 1},
	}

	top := TopAuthors(performance, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "Second", top[0].Name)
	assert.Equal(t, "First", top[1].Name)
	assert.Equal(t, "Third", top[2].Name)
}

func TestBuildStatusDistribution(t *testing.T) {
	counts := BuildStatusDistribution([]models.Submission{
		{Status: models.StatusUnderReview},
		{Status: models.StatusPublished},
		{Status: models.StatusUnderReview},
	})

	require.Len(t, counts, 2)
	assert.Equal(t, models.StatusUnderReview, counts[0].Status)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, 1, counts[1].Count)
}

func TestAnalyticsOverview(t *testing.T) {
	published := monthDate(2026, time.March, 20)
	submissions := &fakeAnalyticsSubmissions{rows: []models.Submission{
		{Status: models.StatusPublished, SubmittedAt: monthDate(2026, time.March, 10), PublishedAt: &published},
		{Status: models.StatusRejected, SubmittedAt: monthDate(2026, time.March, 12)},
	}}
	transactions := &fakeAnalyticsTransactions{rows: []models.Transaction{
		{Amount: 200, CreatedAt: monthDate(2026, time.March, 1)},
	}}
	profiles := &fakeAnalyticsProfiles{total: 7}

	svc := NewAnalyticsService(submissions, transactions, profiles, disabledCache(), config.AnalyticsConfig{TrendMonths: 6, TopAuthors: 5}, zap.NewNop())

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, overview.PlatformStats.TotalRevenue)
	assert.Equal(t, 7, overview.PlatformStats.TotalAuthors)
	assert.Equal(t, 50, overview.PlatformStats.SuccessRate)
	assert.Equal(t, 10.0, overview.PlatformStats.AvgPublicationTimeDays)
	assert.Len(t, overview.Revenue, 1)
	assert.Len(t, overview.MonthlyTrends, 1)
	assert.False(t, overview.GeneratedAt.IsZero())
}
