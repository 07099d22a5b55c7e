package models

import (
	"time"

	"github.com/lib/pq"
)

// Plagiarism check states.
const (
	CheckPending   = "pending"
	CheckRunning   = "running"
	CheckCompleted = "completed"
	CheckFailed    = "failed"
)

// Similarity verdict bands.
const (
	VerdictMinimal     = "minimal"
	VerdictModerate    = "moderate"
	VerdictSignificant = "significant"
)

// PlagiarismCheck stores the outcome of a similarity scan against the
// corpus of stored abstracts.
type PlagiarismCheck struct {
	ID           string         `db:"id" json:"id"`
	SubmissionID string         `db:"submission_id" json:"submission_id"`
	RequestedBy  string         `db:"requested_by" json:"requested_by"`
	Similarity   float64        `db:"similarity" json:"similarity"`
	Verdict      string         `db:"verdict" json:"verdict"`
	SourcesFound pq.StringArray `db:"sources_found" json:"sources_found"`
	Status       string         `db:"status" json:"status"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	CheckedAt    *time.Time     `db:"checked_at" json:"checked_at,omitempty"`
}

// VerdictForSimilarity maps a percentage score to its verdict band.
func VerdictForSimilarity(similarity float64) string {
	switch {
	case similarity < 10:
		return VerdictMinimal
	case similarity < 20:
		return VerdictModerate
	default:
		return VerdictSignificant
	}
}
