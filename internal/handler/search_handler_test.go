package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/internal/service"
	"github.com/academiapress/platform-api/pkg/response"
)

type fakeSearchRepo struct {
	results     []models.SearchResult
	facetSource []models.Submission
	searchCalls int
}

func (f *fakeSearchRepo) Search(context.Context, models.SearchFilter) ([]models.SearchResult, error) {
	f.searchCalls++
	return f.results, nil
}

func (f *fakeSearchRepo) ListFacetSource(context.Context) ([]models.Submission, error) {
	return f.facetSource, nil
}

func newSearchHandler(repo *fakeSearchRepo) *SearchHandler {
	cache := service.NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewSearchHandler(service.NewSearchService(repo, cache, nil, time.Minute, zap.NewNop()))
}

func TestSearchHandlerEmptyFilterReturnsEmptyList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSearchRepo{results: []models.SearchResult{{ID: "s1"}}}
	handler := newSearchHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Search(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, repo.searchCalls)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(0), envelope.Meta["count"])
	assert.Equal(t, false, envelope.Meta["active_filters"])
}

func TestSearchHandlerActiveFilterRunsSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSearchRepo{results: []models.SearchResult{{ID: "s1", Title: "Paper"}}}
	handler := newSearchHandler(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"statuses":["Published"]}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Search(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.searchCalls)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(1), envelope.Meta["count"])
	assert.Equal(t, true, envelope.Meta["active_filters"])
}

func TestSearchHandlerRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSearchHandler(&fakeSearchRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"statuses":`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Search(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandlerOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSearchHandler(&fakeSearchRepo{facetSource: []models.Submission{
		{Status: models.StatusPublished, FieldOfStudy: "Chemistry", SubmissionType: "Review", Keywords: []string{"catalysis"}},
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/search/options", nil)

	handler.Options(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chemistry")
	assert.Contains(t, rec.Body.String(), "catalysis")
}

func TestSearchHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSearchHandler(&fakeSearchRepo{results: []models.SearchResult{{
		ID: "s1", Title: "Paper", AuthorName: "Ada Lovelace", SubmittedAt: time.Now(), Keywords: []string{},
	}}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/search/export", strings.NewReader(`{"author":"Lovelace"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
}
