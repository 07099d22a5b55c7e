package models

import "time"

// Platform roles. Reviewers and editors may change submission statuses;
// editors and admins manage events.
const (
	RoleAuthor   = "author"
	RoleReviewer = "reviewer"
	RoleEditor   = "editor"
	RoleAdmin    = "admin"
)

// UserProfile is the public author identity joined onto submissions.
type UserProfile struct {
	ID          string    `db:"id" json:"id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Institution *string   `db:"institution" json:"institution,omitempty"`
	Department  *string   `db:"department" json:"department,omitempty"`
	Role        string    `db:"role" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DisplayName joins first and last name with a single space.
func (p UserProfile) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// AuthorRecord bundles a profile with its submissions for performance
// aggregation.
type AuthorRecord struct {
	Profile     UserProfile
	Submissions []Submission
}
