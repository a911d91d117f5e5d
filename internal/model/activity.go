package model

import "time"

// ActivityKind identifies the kind of write made against GitHub.
type ActivityKind string

const (
	ActivityStatus    ActivityKind = "status"
	ActivityComment   ActivityKind = "comment"
	ActivityMilestone ActivityKind = "milestone"
	ActivityIssueEdit ActivityKind = "issue_edit"
)

// Activity is a journal entry for one outward write to GitHub.
type Activity struct {
	// ID is a UUID assigned when the entry is recorded.
	ID string `db:"id" json:"id"`

	Kind ActivityKind `db:"kind" json:"kind"`

	// Repository is "owner/name".
	Repository string `db:"repository" json:"repository"`

	// Number is the pull request, issue or milestone number; 0 if unknown.
	Number int `db:"number" json:"number"`

	// SHA is the head commit a status was posted for.
	SHA string `db:"sha" json:"sha"`

	// Detail carries the status state, comment text or milestone title.
	Detail string `db:"detail" json:"detail"`

	Succeeded bool `db:"succeeded" json:"succeeded"`

	// Error holds the failure message when Succeeded is false.
	Error string `db:"error" json:"error"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
