package github

import (
	"context"

	gogithub "github.com/google/go-github/v58/github"
)

// PullRequestsService is the subset of go-github's PullRequestsService
// used here.
type PullRequestsService interface {
	Get(ctx context.Context, owner, repo string, number int) (*gogithub.PullRequest, *gogithub.Response, error)
	List(ctx context.Context, owner, repo string, opts *gogithub.PullRequestListOptions) ([]*gogithub.PullRequest, *gogithub.Response, error)
	IsMerged(ctx context.Context, owner, repo string, number int) (bool, *gogithub.Response, error)
}

// IssuesService is the subset of go-github's IssuesService used here.
type IssuesService interface {
	Get(ctx context.Context, owner, repo string, number int) (*gogithub.Issue, *gogithub.Response, error)
	Edit(ctx context.Context, owner, repo string, number int, issue *gogithub.IssueRequest) (*gogithub.Issue, *gogithub.Response, error)
	ListComments(ctx context.Context, owner, repo string, number int, opts *gogithub.IssueListCommentsOptions) ([]*gogithub.IssueComment, *gogithub.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *gogithub.IssueComment) (*gogithub.IssueComment, *gogithub.Response, error)
	ListMilestones(ctx context.Context, owner, repo string, opts *gogithub.MilestoneListOptions) ([]*gogithub.Milestone, *gogithub.Response, error)
	CreateMilestone(ctx context.Context, owner, repo string, milestone *gogithub.Milestone) (*gogithub.Milestone, *gogithub.Response, error)
}

// RepositoriesService is the subset of go-github's RepositoriesService
// used here.
type RepositoriesService interface {
	ListBranches(ctx context.Context, owner, repo string, opts *gogithub.BranchListOptions) ([]*gogithub.Branch, *gogithub.Response, error)
	CreateStatus(ctx context.Context, owner, repo, ref string, status *gogithub.RepoStatus) (*gogithub.RepoStatus, *gogithub.Response, error)
}

var (
	_ PullRequestsService = (*gogithub.PullRequestsService)(nil)
	_ IssuesService       = (*gogithub.IssuesService)(nil)
	_ RepositoriesService = (*gogithub.RepositoriesService)(nil)
)
