package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/academiapress/platform-api/internal/models"
)

// SubmissionRepository manages persistence for paper submissions.
type SubmissionRepository struct {
	db          *sqlx.DB
	searchLimit int
}

// NewSubmissionRepository constructs a SubmissionRepository. searchLimit caps
// advanced search result sets; values <= 0 fall back to 50.
func NewSubmissionRepository(db *sqlx.DB, searchLimit int) *SubmissionRepository {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	return &SubmissionRepository{db: db, searchLimit: searchLimit}
}

type searchRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Abstract       string         `db:"abstract"`
	Status         string         `db:"status"`
	FieldOfStudy   string         `db:"field_of_study"`
	SubmissionType string         `db:"submission_type"`
	SubmittedAt    time.Time      `db:"submitted_at"`
	Keywords       pq.StringArray `db:"keywords"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Institution    sql.NullString `db:"institution"`
}

// Search compiles the filter into a single conjunctive query and returns the
// flattened result projection. The inner join on user_profiles drops rows
// whose author cannot be resolved. Callers are expected to skip the call
// entirely when the filter is empty.
func (r *SubmissionRepository) Search(ctx context.Context, filter models.SearchFilter) ([]models.SearchResult, error) {
	base := `FROM article_submissions s INNER JOIN user_profiles p ON p.id = s.author_id`
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		args = append(args, pattern)
		patternIdx := len(args)
		args = append(args, filter.Query)
		literalIdx := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(s.title) LIKE $%d OR LOWER(s.abstract) LIKE $%d OR $%d = ANY(s.keywords))",
			patternIdx, patternIdx, literalIdx))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(filter.Statuses))
		conditions = append(conditions, fmt.Sprintf("s.status = ANY($%d)", len(args)))
	}
	if len(filter.FieldsOfStudy) > 0 {
		args = append(args, pq.Array(filter.FieldsOfStudy))
		conditions = append(conditions, fmt.Sprintf("s.field_of_study = ANY($%d)", len(args)))
	}
	if len(filter.SubmissionType) > 0 {
		args = append(args, pq.Array(filter.SubmissionType))
		conditions = append(conditions, fmt.Sprintf("s.submission_type = ANY($%d)", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("s.submitted_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("s.submitted_at <= $%d", len(args)))
	}
	if filter.Author != "" {
		args = append(args, "%"+strings.ToLower(filter.Author)+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(p.first_name) LIKE $%d OR LOWER(p.last_name) LIKE $%d)",
			len(args), len(args)))
	}

	query := fmt.Sprintf(`SELECT s.id, s.title, s.abstract, s.status, s.field_of_study, s.submission_type, s.submitted_at, s.keywords,
        p.first_name, p.last_name, p.institution
        %s WHERE %s ORDER BY s.submitted_at DESC, s.id ASC LIMIT %d`,
		base, strings.Join(conditions, " AND "), r.searchLimit)

	var rows []searchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search submissions: %w", err)
	}

	results := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, flattenSearchRow(row))
	}
	return results, nil
}

// flattenSearchRow produces the flat view model: a single-space joined author
// name, "N/A" for a missing institution, and an empty keyword slice for NULL
// arrays. Total for every well-formed row.
func flattenSearchRow(row searchRow) models.SearchResult {
	institution := "N/A"
	if row.Institution.Valid && row.Institution.String != "" {
		institution = row.Institution.String
	}
	keywords := []string(row.Keywords)
	if keywords == nil {
		keywords = []string{}
	}
	return models.SearchResult{
		ID:             row.ID,
		Title:          row.Title,
		Abstract:       row.Abstract,
		Status:         row.Status,
		FieldOfStudy:   row.FieldOfStudy,
		SubmissionType: row.SubmissionType,
		SubmittedAt:    row.SubmittedAt,
		Keywords:       keywords,
		AuthorName:     row.FirstName + " " + row.LastName,
		Institution:    institution,
	}
}

// ListFacetSource returns the corpus columns the option catalog is derived
// from.
func (r *SubmissionRepository) ListFacetSource(ctx context.Context) ([]models.Submission, error) {
	const query = `SELECT id, status, field_of_study, submission_type, keywords FROM article_submissions`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query); err != nil {
		return nil, fmt.Errorf("list facet source: %w", err)
	}
	return submissions, nil
}

// ListAll returns every submission ordered oldest first, used by trend
// aggregation.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	const query = `SELECT id, author_id, title, abstract, status, field_of_study, submission_type, keywords, file_path, submitted_at, published_at, updated_at
        FROM article_submissions ORDER BY submitted_at ASC, id ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, nil
}

// ListByAuthor returns an author's submissions, most recent first.
func (r *SubmissionRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Submission, error) {
	const query = `SELECT id, author_id, title, abstract, status, field_of_study, submission_type, keywords, file_path, submitted_at, published_at, updated_at
        FROM article_submissions WHERE author_id = $1 ORDER BY submitted_at DESC, id ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, authorID); err != nil {
		return nil, fmt.Errorf("list submissions by author: %w", err)
	}
	return submissions, nil
}

// FindByID fetches a single submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, author_id, title, abstract, status, field_of_study, submission_type, keywords, file_path, submitted_at, published_at, updated_at
        FROM article_submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Create inserts a new submission record.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = now
	}
	submission.UpdatedAt = now
	const query = `INSERT INTO article_submissions (id, author_id, title, abstract, status, field_of_study, submission_type, keywords, file_path, submitted_at, updated_at)
        VALUES (:id, :author_id, :title, :abstract, :status, :field_of_study, :submission_type, :keywords, :file_path, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// UpdateStatus transitions a submission and stamps published_at when the new
// status is Published.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	var publishedAt *time.Time
	if status == models.StatusPublished {
		publishedAt = &at
	}
	const query = `UPDATE article_submissions SET status = $2, published_at = COALESCE($3, published_at), updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, publishedAt, at)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
