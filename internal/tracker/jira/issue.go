package jira

import (
	gojira "github.com/andygrunwald/go-jira"

	"github.com/nhle/pull-shared/internal/tracker"
)

// Issue adapts a go-jira issue to tracker.Issue.
type Issue struct {
	raw *gojira.Issue
	url string
}

var _ tracker.Issue = (*Issue)(nil)

// NewIssue wraps raw; url is the browse link.
func NewIssue(raw *gojira.Issue, url string) *Issue {
	return &Issue{raw: raw, url: url}
}

func (i *Issue) ID() string            { return i.raw.Key }
func (i *Issue) Tracker() tracker.Type { return tracker.TypeJira }
func (i *Issue) Summary() string       { return i.raw.Fields.Summary }
func (i *Issue) Body() string          { return i.raw.Fields.Description }
func (i *Issue) URL() string           { return i.url }

// Status returns the workflow status name, e.g. "Pull Request Sent".
func (i *Issue) Status() string {
	if i.raw.Fields.Status == nil {
		return ""
	}
	return i.raw.Fields.Status.Name
}

// Resolution returns the resolution name, or "" while unresolved.
func (i *Issue) Resolution() string {
	if i.raw.Fields.Resolution == nil {
		return ""
	}
	return i.raw.Fields.Resolution.Name
}

// Project returns the project key, e.g. "WFLY".
func (i *Issue) Project() string {
	return i.raw.Fields.Project.Key
}

func (i *Issue) Type() string {
	return i.raw.Fields.Type.Name
}

func (i *Issue) Assignee() string {
	if i.raw.Fields.Assignee == nil {
		return ""
	}
	return i.raw.Fields.Assignee.DisplayName
}

// FixVersions returns the names of the fix versions in server order.
func (i *Issue) FixVersions() []string {
	versions := make([]string, 0, len(i.raw.Fields.FixVersions))
	for _, v := range i.raw.Fields.FixVersions {
		if v != nil {
			versions = append(versions, v.Name)
		}
	}
	return versions
}

func (i *Issue) Labels() []string {
	return i.raw.Fields.Labels
}

// Raw exposes the underlying go-jira issue.
func (i *Issue) Raw() *gojira.Issue {
	return i.raw
}
