package github

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v58/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/nhle/pull-shared/internal/model"
	"github.com/nhle/pull-shared/internal/store"
)

// mergedMarker is searched for, case-insensitively, in comments when the
// merged flag does not confirm a merge.
const mergedMarker = "merged"

const clientTimeout = 30 * time.Second

// NewClient returns a go-github client. An empty token yields an
// unauthenticated client.
func NewClient(ctx context.Context, token string, log logrus.FieldLogger) *gogithub.Client {
	if token == "" && log != nil {
		log.Warn("GitHub client will not be authenticated")
	}
	return gogithub.NewClient(newHTTPClient(ctx, token))
}

// newHTTPClient returns an HTTP client with clientTimeout that adds token
// as a bearer credential when it is set.
func newHTTPClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: clientTimeout}
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	))
	httpClient.Timeout = clientTimeout
	return httpClient
}

// Option configures a Helper.
type Option func(*options)

type options struct {
	journal store.Journal
	log     logrus.FieldLogger
}

// WithJournal records every write made through the helper.
func WithJournal(j store.Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// Helper exposes the configured repository to PR-processing tools. Its
// methods never return errors: failures are logged and a zero value
// (nil, empty slice or false) is returned. Use Repo for the same calls
// with errors.
type Helper struct {
	repo  *Repo
	login string
	log   logrus.FieldLogger
}

// New creates a Helper for cfg's organization and repository using client.
func New(cfg model.GitHubConfig, client *gogithub.Client, opts ...Option) *Helper {
	return NewWithServices(cfg, client.PullRequests, client.Issues, client.Repositories, opts...)
}

// NewWithServices creates a Helper over explicit service implementations.
func NewWithServices(
	cfg model.GitHubConfig,
	prs PullRequestsService,
	issues IssuesService,
	repos RepositoriesService,
	opts ...Option,
) *Helper {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	repo := NewRepo(cfg.Organization, cfg.Repo, prs, issues, repos, o.journal, o.log)
	return &Helper{
		repo:  repo,
		login: cfg.Login,
		log:   repo.log,
	}
}

// Repo returns the error-returning view of the same repository.
func (h *Helper) Repo() *Repo {
	return h.repo
}

// Login returns the configured GitHub login of the bot account.
func (h *Helper) Login() string {
	return h.login
}

// Branches returns the repository's branches, or an empty list on failure.
func (h *Helper) Branches(ctx context.Context) []*gogithub.Branch {
	branches, err := h.repo.ListBranches(ctx)
	if err != nil {
		h.log.WithError(err).Error("error retrieving branches from repository")
		return []*gogithub.Branch{}
	}
	return branches
}

// PullRequest returns pull request number of the configured repository,
// or nil on failure.
func (h *Helper) PullRequest(ctx context.Context, number int) *gogithub.PullRequest {
	pr, err := h.repo.GetPullRequest(ctx, number)
	if err != nil {
		h.log.WithError(err).WithField("pull", number).Error("couldn't retrieve pull request")
		return nil
	}
	return pr
}

// PullRequestIn returns pull request number of owner/name, or nil on
// failure.
func (h *Helper) PullRequestIn(ctx context.Context, owner, name string, number int) *gogithub.PullRequest {
	pr, err := h.repo.GetPullRequestIn(ctx, owner, name, number)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"pull":     number,
			"upstream": owner + "/" + name,
		}).Error("couldn't retrieve pull request")
		return nil
	}
	return pr
}

// PullRequests returns pull requests in state, or an empty list on
// failure.
func (h *Helper) PullRequests(ctx context.Context, state string) []*gogithub.PullRequest {
	prs, err := h.repo.ListPullRequests(ctx, state)
	if err != nil {
		h.log.WithError(err).WithField("state", state).Error("couldn't get pull requests")
		return []*gogithub.PullRequest{}
	}
	return prs
}

// PostStatus posts a commit status on the pull request's head commit.
func (h *Helper) PostStatus(
	ctx context.Context,
	pr *gogithub.PullRequest,
	targetURL string,
	state string,
	opts ...StatusOption,
) {
	if err := h.repo.CreateStatus(ctx, pr, targetURL, state, opts...); err != nil {
		h.log.WithError(err).WithField("sha", pr.GetHead().GetSHA()).Error("problem posting a status")
	}
}

// PostComment adds a comment to the pull request.
func (h *Helper) PostComment(ctx context.Context, pr *gogithub.PullRequest, body string) {
	if err := h.repo.CreateComment(ctx, pr, body); err != nil {
		h.log.WithError(err).WithField("pull", pr.GetNumber()).Error("problem posting a comment")
	}
}

// Milestones returns open then closed milestones, or an empty list if
// either lookup fails.
func (h *Helper) Milestones(ctx context.Context) []*gogithub.Milestone {
	milestones, err := h.repo.ListMilestones(ctx)
	if err != nil {
		h.log.WithError(err).Error("problem getting milestones")
		return []*gogithub.Milestone{}
	}
	return milestones
}

// CreateMilestone creates a milestone, returning nil on failure.
func (h *Helper) CreateMilestone(ctx context.Context, title string) *gogithub.Milestone {
	milestone, err := h.repo.CreateMilestone(ctx, title)
	if err != nil {
		h.log.WithError(err).WithField("title", title).Error("problem creating new milestone")
		return nil
	}
	return milestone
}

// Issue returns the issue backing the pull request, or nil on failure.
func (h *Helper) Issue(ctx context.Context, pr *gogithub.PullRequest) *gogithub.Issue {
	issue, err := h.repo.GetIssue(ctx, pr)
	if err != nil {
		h.log.WithError(err).WithField("issue_url", pr.GetIssueURL()).Error("problem getting issue")
		return nil
	}
	return issue
}

// EditIssue saves issue, returning the updated issue or nil on failure.
func (h *Helper) EditIssue(ctx context.Context, issue *gogithub.Issue) *gogithub.Issue {
	edited, err := h.repo.EditIssue(ctx, issue)
	if err != nil {
		h.log.WithError(err).WithField("issue", issue.GetNumber()).Error("problem editing issue")
		return nil
	}
	return edited
}

// Comments returns the pull request's comments, or an empty list on
// failure.
func (h *Helper) Comments(ctx context.Context, pr *gogithub.PullRequest) []*gogithub.IssueComment {
	comments, err := h.repo.ListComments(ctx, pr)
	if err != nil {
		h.log.WithError(err).WithField("pull", pr.GetNumber()).Error("error getting comments for pull request")
		return []*gogithub.IssueComment{}
	}
	return comments
}

// IsMerged reports whether pr was merged. A pull request that is not
// closed is never merged. For a closed one the merged flag is checked
// first; if it does not confirm a merge, the comments of the base
// repository's conversation are scanned for the word "merged" in any
// case. Lookup failures are logged and treated as "not merged".
func (h *Helper) IsMerged(ctx context.Context, pr *gogithub.PullRequest) bool {
	if pr == nil {
		return false
	}
	if pr.GetState() != StateClosed {
		return false
	}

	owner, name := h.baseRepo(pr)
	number := pr.GetNumber()
	log := h.log.WithFields(logrus.Fields{"pull": number, "base": owner + "/" + name})

	merged, _, err := h.repo.prs.IsMerged(ctx, owner, name, number)
	if err != nil {
		log.WithError(err).Error("cannot get merged information of the pull request")
	} else if merged {
		return true
	}

	comments, err := h.repo.listCommentsIn(ctx, owner, name, number)
	if err != nil {
		log.WithError(err).Error("cannot get comments of the pull request")
		return false
	}
	for _, comment := range comments {
		if strings.Contains(strings.ToLower(comment.GetBody()), mergedMarker) {
			return true
		}
	}
	return false
}

// LastMatchingComment returns the last comment, in API order, whose body
// matches pattern, or nil if none does.
func (h *Helper) LastMatchingComment(ctx context.Context, pr *gogithub.PullRequest, pattern *regexp.Regexp) *gogithub.IssueComment {
	if pr == nil || pattern == nil {
		return nil
	}

	var last *gogithub.IssueComment
	for _, comment := range h.Comments(ctx, pr) {
		if pattern.MatchString(comment.GetBody()) {
			last = comment
		}
	}
	return last
}

// baseRepo returns the owner and name of the pull request's base
// repository, falling back to the configured repository.
func (h *Helper) baseRepo(pr *gogithub.PullRequest) (string, string) {
	repo := pr.GetBase().GetRepo()
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()
	if owner == "" || name == "" {
		return h.repo.owner, h.repo.name
	}
	return owner, name
}
