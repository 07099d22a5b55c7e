package service

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/pkg/export"
)

const searchOptionsCacheKey = "search:options"

type searchSubmissionRepository interface {
	Search(ctx context.Context, filter models.SearchFilter) ([]models.SearchResult, error)
	ListFacetSource(ctx context.Context) ([]models.Submission, error)
}

// SearchService runs advanced submission searches and maintains the facet
// option catalog.
type SearchService struct {
	repo       searchSubmissionRepository
	cache      *CacheService
	exporter   *export.CSVExporter
	optionsTTL time.Duration
	logger     *zap.Logger

	generation uint64
}

// NewSearchService constructs the search service.
func NewSearchService(repo searchSubmissionRepository, cache *CacheService, exporter *export.CSVExporter, optionsTTL time.Duration, logger *zap.Logger) *SearchService {
	if exporter == nil {
		exporter = export.NewCSVExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{repo: repo, cache: cache, exporter: exporter, optionsTTL: optionsTTL, logger: logger}
}

// Search executes the query and returns the results together with the
// generation token assigned to this request. Callers that render results
// asynchronously should discard any response whose token is no longer
// current, which keeps a slow early request from overwriting a newer one.
//
// An empty filter performs no database work. Repository failures degrade to
// an empty result set so the caller can always render.
func (s *SearchService) Search(ctx context.Context, filter models.SearchFilter) ([]models.SearchResult, uint64, error) {
	token := atomic.AddUint64(&s.generation, 1)
	if filter.IsEmpty() {
		return []models.SearchResult{}, token, nil
	}
	results, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.logger.Error("submission search failed", zap.Error(err))
		return []models.SearchResult{}, token, nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, token, nil
}

// Superseded reports whether a newer search has been issued since the given
// token was handed out.
func (s *SearchService) Superseded(token uint64) bool {
	return atomic.LoadUint64(&s.generation) != token
}

// Options returns the facet catalog, computed from the corpus and cached
// until invalidated or expired.
func (s *SearchService) Options(ctx context.Context) (*models.SearchOptions, error) {
	if s.cache.Enabled() {
		var cached models.SearchOptions
		hit, err := s.cache.Get(ctx, searchOptionsCacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}
	rows, err := s.repo.ListFacetSource(ctx)
	if err != nil {
		return nil, err
	}
	options := buildSearchOptions(rows)
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, searchOptionsCacheKey, options, s.optionsTTL); err != nil {
			s.logger.Warn("search options cache write failed", zap.Error(err))
		}
	}
	return options, nil
}

// InvalidateOptions drops the cached facet catalog so the next Options call
// recomputes it. Called when the submission corpus changes.
func (s *SearchService) InvalidateOptions(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, searchOptionsCacheKey); err != nil {
		s.logger.Warn("search options invalidation failed", zap.Error(err))
	}
}

// ExportCSV renders search results as a CSV document.
func (s *SearchService) ExportCSV(results []models.SearchResult) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"Title", "Author", "Institution", "Status", "Field of Study", "Type", "Submitted", "Keywords"},
	}
	for _, r := range results {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":          r.Title,
			"Author":         r.AuthorName,
			"Institution":    r.Institution,
			"Status":         r.Status,
			"Field of Study": r.FieldOfStudy,
			"Type":           r.SubmissionType,
			"Submitted":      r.SubmittedAt.Format("2006-01-02"),
			"Keywords":       strings.Join(r.Keywords, "; "),
		})
	}
	return s.exporter.Render(dataset)
}

// buildSearchOptions derives the unique, sorted facet values from the corpus.
func buildSearchOptions(rows []models.Submission) *models.SearchOptions {
	statuses := map[string]struct{}{}
	fields := map[string]struct{}{}
	types := map[string]struct{}{}
	keywords := map[string]struct{}{}
	for _, row := range rows {
		if row.Status != "" {
			statuses[row.Status] = struct{}{}
		}
		if row.FieldOfStudy != "" {
			fields[row.FieldOfStudy] = struct{}{}
		}
		if row.SubmissionType != "" {
			types[row.SubmissionType] = struct{}{}
		}
		for _, kw := range row.Keywords {
			if kw != "" {
				keywords[kw] = struct{}{}
			}
		}
	}
	return &models.SearchOptions{
		Statuses:        sortedKeys(statuses),
		FieldsOfStudy:   sortedKeys(fields),
		SubmissionTypes: sortedKeys(types),
		Keywords:        sortedKeys(keywords),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
