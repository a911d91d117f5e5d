package bugzilla

import (
	"strconv"

	"github.com/nhle/pull-shared/internal/tracker"
)

// Bugzilla workflow statuses used by the PR tooling.
const (
	StatusNew      = "NEW"
	StatusAssigned = "ASSIGNED"
	StatusPost     = "POST"
	StatusModified = "MODIFIED"
	StatusOnQA     = "ON_QA"
	StatusVerified = "VERIFIED"
	StatusClosed   = "CLOSED"
)

var _ tracker.Issue = (*Bug)(nil)

func (b *Bug) ID() string            { return strconv.Itoa(b.Number) }
func (b *Bug) Tracker() tracker.Type { return tracker.TypeBugzilla }
func (b *Bug) Status() string        { return b.State }
func (b *Bug) Summary() string       { return b.Title }
func (b *Bug) Body() string          { return b.Description }
func (b *Bug) URL() string           { return b.url }

// Flag returns the flag with the given name, if set.
func (b *Bug) Flag(name string) (Flag, bool) {
	for _, f := range b.Flags {
		if f.Name == name {
			return f, true
		}
	}
	return Flag{}, false
}
