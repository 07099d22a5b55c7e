package models

import (
	"time"

	"github.com/lib/pq"
)

// Submission statuses. The set is open: values outside this list can appear
// in historical rows and are carried through untouched.
const (
	StatusUnderReview      = "Under Review"
	StatusAccepted         = "Accepted"
	StatusPublished        = "Published"
	StatusRejected         = "Rejected"
	StatusRevisionRequired = "Revision Required"
)

// Submission is a paper submitted for review.
type Submission struct {
	ID             string         `db:"id" json:"id"`
	AuthorID       string         `db:"author_id" json:"author_id"`
	Title          string         `db:"title" json:"title"`
	Abstract       string         `db:"abstract" json:"abstract"`
	Status         string         `db:"status" json:"status"`
	FieldOfStudy   string         `db:"field_of_study" json:"field_of_study"`
	SubmissionType string         `db:"submission_type" json:"submission_type"`
	Keywords       pq.StringArray `db:"keywords" json:"keywords"`
	FilePath       string         `db:"file_path" json:"file_path,omitempty"`
	SubmittedAt    time.Time      `db:"submitted_at" json:"submitted_at"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// SearchFilter holds the advanced search criteria. Any field may be set
// independently; zero values mean "no constraint".
type SearchFilter struct {
	Query          string     `json:"query"`
	Statuses       []string   `json:"statuses"`
	FieldsOfStudy  []string   `json:"fields_of_study"`
	SubmissionType []string   `json:"submission_types"`
	DateFrom       *time.Time `json:"date_from"`
	DateTo         *time.Time `json:"date_to"`
	Author         string     `json:"author"`
	Keywords       []string   `json:"keywords"`
}

// HasActiveFilters reports whether any facet, date bound, author substring,
// or keyword is set. The free-text query is deliberately excluded: an empty
// query with no active filters means "do not search".
func (f SearchFilter) HasActiveFilters() bool {
	return len(f.Statuses) > 0 ||
		len(f.FieldsOfStudy) > 0 ||
		len(f.SubmissionType) > 0 ||
		f.DateFrom != nil ||
		f.DateTo != nil ||
		f.Author != "" ||
		len(f.Keywords) > 0
}

// IsEmpty reports whether neither a text query nor any filter is active.
func (f SearchFilter) IsEmpty() bool {
	return f.Query == "" && !f.HasActiveFilters()
}

// Reset clears every criterion back to its empty default.
func (f *SearchFilter) Reset() {
	*f = SearchFilter{}
}

// SearchResult is the denormalized render-only projection of a submission
// joined with its author profile.
type SearchResult struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Abstract       string    `json:"abstract"`
	Status         string    `json:"status"`
	FieldOfStudy   string    `json:"field_of_study"`
	SubmissionType string    `json:"submission_type"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Keywords       []string  `json:"keywords"`
	AuthorName     string    `json:"author_name"`
	Institution    string    `json:"institution"`
}

// SearchOptions are the selectable facet values derived from the corpus.
type SearchOptions struct {
	Statuses        []string `json:"statuses"`
	FieldsOfStudy   []string `json:"fields_of_study"`
	SubmissionTypes []string `json:"submission_types"`
	Keywords        []string `json:"keywords"`
}
