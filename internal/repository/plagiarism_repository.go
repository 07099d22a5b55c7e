package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academiapress/platform-api/internal/models"
)

// PlagiarismRepository persists similarity-check records.
type PlagiarismRepository struct {
	db *sqlx.DB
}

// NewPlagiarismRepository constructs a PlagiarismRepository.
func NewPlagiarismRepository(db *sqlx.DB) *PlagiarismRepository {
	return &PlagiarismRepository{db: db}
}

// Create inserts a pending check.
func (r *PlagiarismRepository) Create(ctx context.Context, check *models.PlagiarismCheck) error {
	if check.ID == "" {
		check.ID = uuid.NewString()
	}
	if check.RequestedAt.IsZero() {
		check.RequestedAt = time.Now().UTC()
	}
	if check.Status == "" {
		check.Status = models.CheckPending
	}
	const query = `INSERT INTO plagiarism_checks (id, submission_id, requested_by, similarity, verdict, sources_found, status, requested_at)
        VALUES (:id, :submission_id, :requested_by, :similarity, :verdict, :sources_found, :status, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, check); err != nil {
		return fmt.Errorf("create plagiarism check: %w", err)
	}
	return nil
}

// FindByID fetches a check by its ID.
func (r *PlagiarismRepository) FindByID(ctx context.Context, id string) (*models.PlagiarismCheck, error) {
	const query = `SELECT id, submission_id, requested_by, similarity, verdict, sources_found, status, requested_at, checked_at
        FROM plagiarism_checks WHERE id = $1`
	var check models.PlagiarismCheck
	if err := r.db.GetContext(ctx, &check, query, id); err != nil {
		return nil, err
	}
	return &check, nil
}

// MarkRunning flips a pending check to running.
func (r *PlagiarismRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE plagiarism_checks SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.CheckRunning); err != nil {
		return fmt.Errorf("mark check running: %w", err)
	}
	return nil
}

// Complete stores the computed outcome.
func (r *PlagiarismRepository) Complete(ctx context.Context, check *models.PlagiarismCheck) error {
	now := time.Now().UTC()
	check.CheckedAt = &now
	check.Status = models.CheckCompleted
	const query = `UPDATE plagiarism_checks SET similarity = :similarity, verdict = :verdict, sources_found = :sources_found, status = :status, checked_at = :checked_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, check); err != nil {
		return fmt.Errorf("complete plagiarism check: %w", err)
	}
	return nil
}

// MarkFailed records a permanently failed check.
func (r *PlagiarismRepository) MarkFailed(ctx context.Context, id string) error {
	const query = `UPDATE plagiarism_checks SET status = $2, checked_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.CheckFailed, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark check failed: %w", err)
	}
	return nil
}

// CorpusDocument is one comparison target for the similarity scan.
type CorpusDocument struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	Abstract string `db:"abstract"`
}

// ListCorpus returns the abstracts the scan compares against, excluding the
// submission under test.
func (r *PlagiarismRepository) ListCorpus(ctx context.Context, excludeSubmissionID string) ([]CorpusDocument, error) {
	const query = `SELECT id, title, abstract FROM article_submissions WHERE id <> $1`
	var docs []CorpusDocument
	if err := r.db.SelectContext(ctx, &docs, query, excludeSubmissionID); err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	return docs, nil
}
