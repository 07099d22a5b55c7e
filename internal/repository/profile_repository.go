package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/academiapress/platform-api/internal/models"
)

// ProfileRepository manages persistence for author profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID fetches a profile by its ID.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	const query = `SELECT id, first_name, last_name, institution, department, role, created_at FROM user_profiles WHERE id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a new profile row.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_profiles (id, first_name, last_name, institution, department, role, created_at)
        VALUES (:id, :first_name, :last_name, :institution, :department, :role, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

type authorRow struct {
	ID           string         `db:"id"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Institution  sql.NullString `db:"institution"`
	SubmissionID sql.NullString `db:"submission_id"`
	Status       sql.NullString `db:"status"`
	SubmittedAt  *time.Time     `db:"submitted_at"`
	PublishedAt  *time.Time     `db:"published_at"`
}

// ListAuthorsWithSubmissions returns every profile with its submissions
// attached. Authors without submissions are included with an empty slice;
// the left join keeps them so zero-submission success rates stay defined.
// Row order follows profile creation time so downstream stable sorts have a
// deterministic input order.
func (r *ProfileRepository) ListAuthorsWithSubmissions(ctx context.Context) ([]models.AuthorRecord, error) {
	const query = `SELECT p.id, p.first_name, p.last_name, p.institution,
        s.id AS submission_id, s.status, s.submitted_at, s.published_at
        FROM user_profiles p
        LEFT JOIN article_submissions s ON s.author_id = p.id
        ORDER BY p.created_at ASC, p.id ASC, s.submitted_at ASC`

	var rows []authorRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list authors with submissions: %w", err)
	}

	records := make([]models.AuthorRecord, 0)
	index := make(map[string]int)
	for _, row := range rows {
		pos, seen := index[row.ID]
		if !seen {
			institution := ""
			if row.Institution.Valid {
				institution = row.Institution.String
			}
			record := models.AuthorRecord{Profile: models.UserProfile{
				ID:        row.ID,
				FirstName: row.FirstName,
				LastName:  row.LastName,
			}}
			if institution != "" {
				record.Profile.Institution = &institution
			}
			records = append(records, record)
			pos = len(records) - 1
			index[row.ID] = pos
		}
		if row.SubmissionID.Valid {
			submission := models.Submission{
				ID:       row.SubmissionID.String,
				AuthorID: row.ID,
				Status:   row.Status.String,
			}
			if row.SubmittedAt != nil {
				submission.SubmittedAt = *row.SubmittedAt
			}
			submission.PublishedAt = row.PublishedAt
			records[pos].Submissions = append(records[pos].Submissions, submission)
		}
	}
	return records, nil
}

// CountAuthors returns the total number of profiles.
func (r *ProfileRepository) CountAuthors(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user_profiles`); err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return total, nil
}
