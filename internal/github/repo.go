package github

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	gogithub "github.com/google/go-github/v58/github"
	"github.com/sirupsen/logrus"

	"github.com/nhle/pull-shared/internal/model"
	"github.com/nhle/pull-shared/internal/store"
)

// perPage is the page size for list calls. Only the first page is read.
const perPage = 100

// Pull request states accepted by PullRequests and reported by the API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Commit status states.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// ErrInvalidIssueURL is returned when a pull request's issue URL does not
// end in an issue number.
var ErrInvalidIssueURL = errors.New("invalid issue url")

// ErrNilIssue is returned by EditIssue when it is given no issue.
var ErrNilIssue = errors.New("no issue to edit")

// Repo performs GitHub calls against one owner/name pair and returns
// every failure to the caller.
type Repo struct {
	owner string
	name  string

	prs    PullRequestsService
	issues IssuesService
	repos  RepositoriesService

	journal store.Journal
	log     logrus.FieldLogger
}

// NewRepo binds the given services to owner/name. Journal may be nil.
func NewRepo(
	owner, name string,
	prs PullRequestsService,
	issues IssuesService,
	repos RepositoriesService,
	journal store.Journal,
	log logrus.FieldLogger,
) *Repo {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Repo{
		owner:   owner,
		name:    name,
		prs:     prs,
		issues:  issues,
		repos:   repos,
		journal: journal,
		log:     log.WithField("repository", owner+"/"+name),
	}
}

// FullName returns "owner/name".
func (r *Repo) FullName() string {
	return r.owner + "/" + r.name
}

// ListBranches returns the repository's branches.
func (r *Repo) ListBranches(ctx context.Context) ([]*gogithub.Branch, error) {
	opts := &gogithub.BranchListOptions{
		ListOptions: gogithub.ListOptions{PerPage: perPage},
	}
	branches, _, err := r.repos.ListBranches(ctx, r.owner, r.name, opts)
	if err != nil {
		return nil, fmt.Errorf("listing branches of %s: %w", r.FullName(), err)
	}
	return branches, nil
}

// GetPullRequest fetches pull request number from this repository.
func (r *Repo) GetPullRequest(ctx context.Context, number int) (*gogithub.PullRequest, error) {
	return r.GetPullRequestIn(ctx, r.owner, r.name, number)
}

// GetPullRequestIn fetches pull request number from owner/name, e.g. an
// upstream repository.
func (r *Repo) GetPullRequestIn(ctx context.Context, owner, name string, number int) (*gogithub.PullRequest, error) {
	pr, _, err := r.prs.Get(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("getting pull request %d from %s/%s: %w", number, owner, name, err)
	}
	return pr, nil
}

// ListPullRequests returns pull requests in the given state ("open",
// "closed" or "all").
func (r *Repo) ListPullRequests(ctx context.Context, state string) ([]*gogithub.PullRequest, error) {
	opts := &gogithub.PullRequestListOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: perPage},
	}
	prs, _, err := r.prs.List(ctx, r.owner, r.name, opts)
	if err != nil {
		return nil, fmt.Errorf("listing %s pull requests of %s: %w", state, r.FullName(), err)
	}
	return prs, nil
}

// StatusOption customises a commit status.
type StatusOption func(*gogithub.RepoStatus)

// WithStatusContext sets the status context label, e.g. "ci/merge-bot".
func WithStatusContext(label string) StatusOption {
	return func(s *gogithub.RepoStatus) { s.Context = gogithub.String(label) }
}

// WithStatusDescription sets the short status description.
func WithStatusDescription(description string) StatusOption {
	return func(s *gogithub.RepoStatus) { s.Description = gogithub.String(description) }
}

// CreateStatus posts a commit status for the pull request's head commit.
func (r *Repo) CreateStatus(
	ctx context.Context,
	pr *gogithub.PullRequest,
	targetURL string,
	state string,
	opts ...StatusOption,
) error {
	sha := pr.GetHead().GetSHA()
	status := &gogithub.RepoStatus{
		State:     gogithub.String(state),
		TargetURL: gogithub.String(targetURL),
	}
	for _, opt := range opts {
		opt(status)
	}

	_, _, err := r.repos.CreateStatus(ctx, r.owner, r.name, sha, status)
	if err != nil {
		err = fmt.Errorf("posting %s status for %s: %w", state, sha, err)
	}
	r.record(ctx, model.Activity{
		Kind:   model.ActivityStatus,
		Number: pr.GetNumber(),
		SHA:    sha,
		Detail: state + " " + targetURL,
	}, err)
	return err
}

// CreateComment adds a comment to the pull request's conversation.
func (r *Repo) CreateComment(ctx context.Context, pr *gogithub.PullRequest, body string) error {
	comment := &gogithub.IssueComment{Body: gogithub.String(body)}
	_, _, err := r.issues.CreateComment(ctx, r.owner, r.name, pr.GetNumber(), comment)
	if err != nil {
		err = fmt.Errorf("commenting on pull %d: %w", pr.GetNumber(), err)
	}
	r.record(ctx, model.Activity{
		Kind:   model.ActivityComment,
		Number: pr.GetNumber(),
		Detail: body,
	}, err)
	return err
}

// ListMilestones returns open milestones followed by closed ones.
func (r *Repo) ListMilestones(ctx context.Context) ([]*gogithub.Milestone, error) {
	var milestones []*gogithub.Milestone
	for _, state := range []string{StateOpen, StateClosed} {
		opts := &gogithub.MilestoneListOptions{
			State:       state,
			ListOptions: gogithub.ListOptions{PerPage: perPage},
		}
		page, _, err := r.issues.ListMilestones(ctx, r.owner, r.name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing %s milestones of %s: %w", state, r.FullName(), err)
		}
		milestones = append(milestones, page...)
	}
	return milestones, nil
}

// CreateMilestone creates a milestone with the given title.
func (r *Repo) CreateMilestone(ctx context.Context, title string) (*gogithub.Milestone, error) {
	milestone, _, err := r.issues.CreateMilestone(ctx, r.owner, r.name, &gogithub.Milestone{
		Title: gogithub.String(title),
	})
	if err != nil {
		err = fmt.Errorf("creating milestone %q: %w", title, err)
	}
	r.record(ctx, model.Activity{
		Kind:   model.ActivityMilestone,
		Number: milestone.GetNumber(),
		Detail: title,
	}, err)
	if err != nil {
		return nil, err
	}
	return milestone, nil
}

// GetIssue fetches the issue backing the pull request, identified by the
// last path segment of the pull request's issue URL.
func (r *Repo) GetIssue(ctx context.Context, pr *gogithub.PullRequest) (*gogithub.Issue, error) {
	number, err := IssueNumberFromURL(pr.GetIssueURL())
	if err != nil {
		return nil, err
	}
	issue, _, err := r.issues.Get(ctx, r.owner, r.name, number)
	if err != nil {
		return nil, fmt.Errorf("getting issue %d: %w", number, err)
	}
	return issue, nil
}

// EditIssue writes the issue's title, body, state, milestone, labels and
// assignees back to GitHub.
func (r *Repo) EditIssue(ctx context.Context, issue *gogithub.Issue) (*gogithub.Issue, error) {
	if issue == nil {
		return nil, ErrNilIssue
	}
	req := issueRequest(issue)
	edited, _, err := r.issues.Edit(ctx, r.owner, r.name, issue.GetNumber(), req)
	if err != nil {
		err = fmt.Errorf("editing issue %d: %w", issue.GetNumber(), err)
	}
	r.record(ctx, model.Activity{
		Kind:   model.ActivityIssueEdit,
		Number: issue.GetNumber(),
		Detail: issue.GetTitle(),
	}, err)
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// ListComments returns the comments of the pull request's conversation
// in this repository, in API order.
func (r *Repo) ListComments(ctx context.Context, pr *gogithub.PullRequest) ([]*gogithub.IssueComment, error) {
	return r.listCommentsIn(ctx, r.owner, r.name, pr.GetNumber())
}

func (r *Repo) listCommentsIn(ctx context.Context, owner, name string, number int) ([]*gogithub.IssueComment, error) {
	opts := &gogithub.IssueListCommentsOptions{
		ListOptions: gogithub.ListOptions{PerPage: perPage},
	}
	comments, _, err := r.issues.ListComments(ctx, owner, name, number, opts)
	if err != nil {
		return nil, fmt.Errorf("listing comments of %s/%s#%d: %w", owner, name, number, err)
	}
	return comments, nil
}

// IssueNumberFromURL extracts the trailing issue number from an issue API
// or HTML URL such as https://api.github.com/repos/o/r/issues/42.
func IssueNumberFromURL(issueURL string) (int, error) {
	segment := issueURL[strings.LastIndex(issueURL, "/")+1:]
	number, err := strconv.Atoi(segment)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIssueURL, issueURL)
	}
	return number, nil
}

// issueRequest converts an issue into the payload accepted by the edit
// endpoint.
func issueRequest(issue *gogithub.Issue) *gogithub.IssueRequest {
	req := &gogithub.IssueRequest{
		Title: issue.Title,
		Body:  issue.Body,
		State: issue.State,
	}
	if issue.Milestone != nil {
		req.Milestone = issue.Milestone.Number
	}
	if issue.Labels != nil {
		labels := make([]string, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.GetName())
		}
		req.Labels = &labels
	}
	if issue.Assignees != nil {
		assignees := make([]string, 0, len(issue.Assignees))
		for _, a := range issue.Assignees {
			assignees = append(assignees, a.GetLogin())
		}
		req.Assignees = &assignees
	}
	return req
}

// record journals a write. Journal failures are logged, never returned.
func (r *Repo) record(ctx context.Context, a model.Activity, opErr error) {
	if r.journal == nil {
		return
	}
	a.Repository = r.FullName()
	a.Succeeded = opErr == nil
	if opErr != nil {
		a.Error = opErr.Error()
	}
	if err := r.journal.Record(ctx, a); err != nil {
		r.log.WithError(err).WithField("kind", a.Kind).Warn("failed to journal activity")
	}
}
