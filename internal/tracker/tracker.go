package tracker

import (
	"context"
	"errors"
	"fmt"
)

// Type identifies the issue tracker that owns an issue.
type Type string

const (
	TypeBugzilla Type = "bugzilla"
	TypeJira     Type = "jira"
)

var (
	// ErrInvalidIssueID is returned when an identifier is malformed or
	// no tracker recognises it.
	ErrInvalidIssueID = errors.New("invalid issue id")

	// ErrNotFound is returned by tracker clients when the issue does not
	// exist on the server.
	ErrNotFound = errors.New("issue not found")
)

// APIError is a non-success response from a tracker REST API.
type APIError struct {
	Tracker    Type
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Tracker, e.StatusCode, e.Message)
}

// Issue is the tracker-independent view of a Bugzilla bug or JIRA issue.
type Issue interface {
	// ID returns the tracker identifier: the bug number for Bugzilla, the
	// project-prefixed key for JIRA.
	ID() string

	Tracker() Type

	// Status returns the tracker's own status name (e.g. "POST",
	// "Resolved").
	Status() string

	Summary() string

	// Body returns the textual description of the issue.
	Body() string

	// URL returns the browser link for the issue.
	URL() string
}

// BugFinder looks up Bugzilla bugs by numeric id.
type BugFinder interface {
	GetBug(ctx context.Context, id int) (Issue, error)
}

// IssueFinder looks up JIRA issues by key.
type IssueFinder interface {
	GetIssue(ctx context.Context, key string) (Issue, error)
}

// Helper finds issues across trackers and updates their status.
type Helper interface {
	// FindIssue returns the issue for a Bugzilla bug number or a JIRA key.
	// It fails with ErrInvalidIssueID when neither tracker recognises id.
	FindIssue(ctx context.Context, id string) (Issue, error)

	// UpdateStatus moves an issue to newStatus and reports whether the
	// update happened.
	UpdateStatus(ctx context.Context, id string, newStatus string) (bool, error)
}
