package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Dispatcher implements Helper by routing numeric identifiers to Bugzilla
// and everything else to JIRA.
type Dispatcher struct {
	bugs   BugFinder
	issues IssueFinder
	log    logrus.FieldLogger
}

// NewDispatcher creates a Dispatcher over the given tracker clients.
func NewDispatcher(bugs BugFinder, issues IssueFinder, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{bugs: bugs, issues: issues, log: log}
}

// RouteFor reports which tracker owns id. A run of decimal digits with at
// most one leading sign belongs to Bugzilla; anything else is a JIRA key.
func RouteFor(id string) Type {
	digits := strings.TrimSpace(id)
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		digits = digits[1:]
	}
	if digits == "" {
		return TypeJira
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return TypeJira
		}
	}
	return TypeBugzilla
}

// FindIssue looks up id on the tracker chosen by RouteFor.
func (d *Dispatcher) FindIssue(ctx context.Context, id string) (Issue, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidIssueID)
	}

	switch RouteFor(id) {
	case TypeBugzilla:
		return d.findBug(ctx, id)
	default:
		return d.findJiraIssue(ctx, id)
	}
}

func (d *Dispatcher) findBug(ctx context.Context, id string) (Issue, error) {
	number, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("%w: bug id %s out of range", ErrInvalidIssueID, id)
	}
	if number < 0 {
		return nil, fmt.Errorf("%w: bug id %d is negative", ErrInvalidIssueID, number)
	}

	d.log.WithField("bug", number).Debug("looking up Bugzilla bug")

	bug, err := d.bugs.GetBug(ctx, number)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIssueID, id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("finding Bugzilla bug %d: %w", number, err)
	}
	return bug, nil
}

func (d *Dispatcher) findJiraIssue(ctx context.Context, key string) (Issue, error) {
	d.log.WithField("key", key).Debug("looking up JIRA issue")

	issue, err := d.issues.GetIssue(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidIssueID, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("finding JIRA issue %s: %w", key, err)
	}
	return issue, nil
}

// UpdateStatus is not implemented for either tracker and always reports
// false. Neither tracker is contacted.
func (d *Dispatcher) UpdateStatus(_ context.Context, id string, newStatus string) (bool, error) {
	d.log.WithFields(logrus.Fields{
		"id":     id,
		"status": newStatus,
	}).Debug("status update requested; not supported")
	return false, nil
}
