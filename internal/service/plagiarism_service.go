package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/internal/repository"
	"github.com/academiapress/platform-api/pkg/config"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
	"github.com/academiapress/platform-api/pkg/jobs"
)

// sourceReportThreshold is the minimum per-document overlap share for a
// corpus document to be listed as a matched source.
const sourceReportThreshold = 0.05

// maxReportedSources caps the sources_found list.
const maxReportedSources = 5

type plagiarismRepository interface {
	Create(ctx context.Context, check *models.PlagiarismCheck) error
	FindByID(ctx context.Context, id string) (*models.PlagiarismCheck, error)
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, check *models.PlagiarismCheck) error
	MarkFailed(ctx context.Context, id string) error
	ListCorpus(ctx context.Context, excludeSubmissionID string) ([]repository.CorpusDocument, error)
}

type plagiarismSubmissionReader interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
}

// PlagiarismService runs similarity scans against the stored corpus in a
// background worker pool. Scores are word n-gram Jaccard overlap, so the
// same inputs always produce the same score.
type PlagiarismService struct {
	repo        plagiarismRepository
	submissions plagiarismSubmissionReader
	queue       *jobs.Queue
	shingleSize int
	logger      *zap.Logger
}

// NewPlagiarismService constructs the service and its worker queue.
func NewPlagiarismService(repo plagiarismRepository, submissions plagiarismSubmissionReader, cfg config.PlagiarismConfig, logger *zap.Logger) *PlagiarismService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShingleSize <= 0 {
		cfg.ShingleSize = 3
	}
	s := &PlagiarismService{
		repo:        repo,
		submissions: submissions,
		shingleSize: cfg.ShingleSize,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("plagiarism", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *PlagiarismService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains and stops the background workers.
func (s *PlagiarismService) Stop() {
	s.queue.Stop()
}

// RequestCheck records a pending check and queues it for processing.
func (s *PlagiarismService) RequestCheck(ctx context.Context, submissionID, requestedBy string) (*models.PlagiarismCheck, error) {
	if _, err := s.submissions.FindByID(ctx, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	check := &models.PlagiarismCheck{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		RequestedBy:  requestedBy,
		Status:       models.CheckPending,
		RequestedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, check); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create check")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "plagiarism_check", Payload: check.ID}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, check.ID); markErr != nil {
			s.logger.Error("failed to mark check failed", zap.String("check_id", check.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue check")
	}
	return check, nil
}

// Get returns a check by id.
func (s *PlagiarismService) Get(ctx context.Context, id string) (*models.PlagiarismCheck, error) {
	check, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load check")
	}
	return check, nil
}

func (s *PlagiarismService) process(ctx context.Context, job jobs.Job) error {
	check, err := s.repo.FindByID(ctx, job.Payload)
	if err != nil {
		return fmt.Errorf("load check %s: %w", job.Payload, err)
	}
	if err := s.repo.MarkRunning(ctx, check.ID); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	submission, err := s.submissions.FindByID(ctx, check.SubmissionID)
	if err != nil {
		return s.fail(ctx, check.ID, fmt.Errorf("load submission: %w", err))
	}
	corpus, err := s.repo.ListCorpus(ctx, check.SubmissionID)
	if err != nil {
		return s.fail(ctx, check.ID, fmt.Errorf("load corpus: %w", err))
	}

	similarity, sources := s.score(submission, corpus)
	check.Similarity = similarity
	check.Verdict = models.VerdictForSimilarity(similarity)
	check.SourcesFound = sources
	check.Status = models.CheckCompleted
	now := time.Now().UTC()
	check.CheckedAt = &now
	if err := s.repo.Complete(ctx, check); err != nil {
		return fmt.Errorf("complete check: %w", err)
	}
	s.logger.Info("plagiarism check completed",
		zap.String("check_id", check.ID),
		zap.Float64("similarity", similarity),
		zap.String("verdict", check.Verdict))
	return nil
}

func (s *PlagiarismService) fail(ctx context.Context, checkID string, cause error) error {
	if err := s.repo.MarkFailed(ctx, checkID); err != nil {
		s.logger.Error("failed to mark check failed", zap.String("check_id", checkID), zap.Error(err))
	}
	return cause
}

// score computes the overall similarity percentage (highest per-document
// overlap) and collects matched source titles strongest first.
func (s *PlagiarismService) score(submission *models.Submission, corpus []repository.CorpusDocument) (float64, []string) {
	subject := shingleSet(submission.Title+" "+submission.Abstract, s.shingleSize)

	type match struct {
		title string
		score float64
	}
	var best float64
	var matches []match
	for _, doc := range corpus {
		score := jaccard(subject, shingleSet(doc.Title+" "+doc.Abstract, s.shingleSize))
		if score > best {
			best = score
		}
		if score >= sourceReportThreshold {
			matches = append(matches, match{title: doc.Title, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > maxReportedSources {
		matches = matches[:maxReportedSources]
	}
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, m.title)
	}
	return roundToOne(best * 100), sources
}

// shingleSet builds the set of lowercase word n-grams for a text. Texts
// shorter than n words collapse into a single shingle.
func shingleSet(text string, n int) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := map[string]struct{}{}
	if len(words) == 0 {
		return set
	}
	if len(words) < n {
		set[strings.Join(words, " ")] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(words); i++ {
		set[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var intersection int
	for k := range small {
		if _, ok := large[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
