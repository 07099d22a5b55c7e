package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academiapress/platform-api/internal/models"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func searchColumns() []string {
	return []string{"id", "title", "abstract", "status", "field_of_study", "submission_type", "submitted_at", "keywords", "first_name", "last_name", "institution"}
}

func TestSubmissionRepositorySearchStatusFilter(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	submitted := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(searchColumns()).
		AddRow("s1", "Graph Sparsifiers", "Abstract", models.StatusPublished, "Computer Science", "Research Article", submitted, "{graphs,algorithms}", "Ada", "Lovelace", "Analytical Society")

	mock.ExpectQuery(regexp.QuoteMeta("s.status = ANY($1)")).
		WithArgs(pq.Array([]string{models.StatusPublished, models.StatusAccepted})).
		WillReturnRows(rows)

	results, err := repo.Search(context.Background(), models.SearchFilter{
		Statuses: []string{models.StatusPublished, models.StatusAccepted},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Ada Lovelace", results[0].AuthorName)
	assert.Equal(t, "Analytical Society", results[0].Institution)
	assert.Equal(t, []string{"graphs", "algorithms"}, results[0].Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySearchQueryPredicate(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	mock.ExpectQuery(regexp.QuoteMeta("(LOWER(s.title) LIKE $1 OR LOWER(s.abstract) LIKE $1 OR $2 = ANY(s.keywords))")).
		WithArgs("%quantum%", "Quantum").
		WillReturnRows(sqlmock.NewRows(searchColumns()))

	results, err := repo.Search(context.Background(), models.SearchFilter{Query: "Quantum"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySearchCapsResults(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 0)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.submitted_at DESC, s.id ASC LIMIT 50")).
		WithArgs("%curie%").
		WillReturnRows(sqlmock.NewRows(searchColumns()))

	_, err := repo.Search(context.Background(), models.SearchFilter{Author: "Curie"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositorySearchNullColumns(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	rows := sqlmock.NewRows(searchColumns()).
		AddRow("s2", "Untitled", "Abstract", models.StatusUnderReview, "Physics", "Short Communication", time.Now(), nil, "Grace", "Hopper", nil)
	mock.ExpectQuery(regexp.QuoteMeta("s.field_of_study = ANY($1)")).
		WithArgs(pq.Array([]string{"Physics"})).
		WillReturnRows(rows)

	results, err := repo.Search(context.Background(), models.SearchFilter{FieldsOfStudy: []string{"Physics"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "N/A", results[0].Institution)
	assert.Equal(t, []string{}, results[0].Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListFacetSource(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	rows := sqlmock.NewRows([]string{"id", "status", "field_of_study", "submission_type", "keywords"}).
		AddRow("s1", models.StatusPublished, "Biology", "Review", "{genomics}").
		AddRow("s2", models.StatusUnderReview, "Biology", "Research Article", "{ecology,genomics}")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, status, field_of_study, submission_type, keywords FROM article_submissions")).
		WillReturnRows(rows)

	submissions, err := repo.ListFacetSource(context.Background())
	require.NoError(t, err)
	assert.Len(t, submissions, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE article_submissions SET status").
		WithArgs("s1", models.StatusPublished, &at, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "s1", models.StatusPublished, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db, 50)

	at := time.Now().UTC()
	mock.ExpectExec("UPDATE article_submissions SET status").
		WithArgs("missing", models.StatusRejected, nil, at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusRejected, at)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
