package github

import (
	"context"
	"errors"
	"fmt"

	gogithub "github.com/google/go-github/v58/github"
)

var errBoom = errors.New("boom")

type repoKey struct {
	owner, name string
	number      int
}

type fakePRs struct {
	pulls    map[repoKey]*gogithub.PullRequest
	list     []*gogithub.PullRequest
	merged   map[repoKey]bool
	mergeErr error
	err      error

	listState string
}

func (f *fakePRs) Get(_ context.Context, owner, repo string, number int) (*gogithub.PullRequest, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	pr, ok := f.pulls[repoKey{owner, repo, number}]
	if !ok {
		return nil, nil, fmt.Errorf("pull %s/%s#%d: not found", owner, repo, number)
	}
	return pr, nil, nil
}

func (f *fakePRs) List(_ context.Context, _, _ string, opts *gogithub.PullRequestListOptions) ([]*gogithub.PullRequest, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.listState = opts.State
	return f.list, nil, nil
}

func (f *fakePRs) IsMerged(_ context.Context, owner, repo string, number int) (bool, *gogithub.Response, error) {
	if f.mergeErr != nil {
		return false, nil, f.mergeErr
	}
	return f.merged[repoKey{owner, repo, number}], nil, nil
}

type fakeIssues struct {
	issues     map[int]*gogithub.Issue
	comments   map[repoKey][]*gogithub.IssueComment
	milestones map[string][]*gogithub.Milestone
	err        error
	commentErr error

	created  []*gogithub.IssueComment
	edited   *gogithub.IssueRequest
	newTitle string
}

func (f *fakeIssues) Get(_ context.Context, _, _ string, number int) (*gogithub.Issue, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	issue, ok := f.issues[number]
	if !ok {
		return nil, nil, fmt.Errorf("issue %d: not found", number)
	}
	return issue, nil, nil
}

func (f *fakeIssues) Edit(_ context.Context, _, _ string, number int, req *gogithub.IssueRequest) (*gogithub.Issue, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.edited = req
	return &gogithub.Issue{Number: gogithub.Int(number), Title: req.Title}, nil, nil
}

func (f *fakeIssues) ListComments(_ context.Context, owner, repo string, number int, _ *gogithub.IssueListCommentsOptions) ([]*gogithub.IssueComment, *gogithub.Response, error) {
	if f.commentErr != nil {
		return nil, nil, f.commentErr
	}
	return f.comments[repoKey{owner, repo, number}], nil, nil
}

func (f *fakeIssues) CreateComment(_ context.Context, _, _ string, _ int, comment *gogithub.IssueComment) (*gogithub.IssueComment, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.created = append(f.created, comment)
	return comment, nil, nil
}

func (f *fakeIssues) ListMilestones(_ context.Context, _, _ string, opts *gogithub.MilestoneListOptions) ([]*gogithub.Milestone, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.milestones[opts.State], nil, nil
}

func (f *fakeIssues) CreateMilestone(_ context.Context, _, _ string, milestone *gogithub.Milestone) (*gogithub.Milestone, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.newTitle = milestone.GetTitle()
	return &gogithub.Milestone{Number: gogithub.Int(7), Title: milestone.Title}, nil, nil
}

type fakeRepos struct {
	branches []*gogithub.Branch
	err      error

	statusRef string
	status    *gogithub.RepoStatus
}

func (f *fakeRepos) ListBranches(context.Context, string, string, *gogithub.BranchListOptions) ([]*gogithub.Branch, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.branches, nil, nil
}

func (f *fakeRepos) CreateStatus(_ context.Context, _, _, ref string, status *gogithub.RepoStatus) (*gogithub.RepoStatus, *gogithub.Response, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.statusRef = ref
	f.status = status
	return status, nil, nil
}

func comment(id int64, body string) *gogithub.IssueComment {
	return &gogithub.IssueComment{ID: gogithub.Int64(id), Body: gogithub.String(body)}
}

// pull builds a pull request whose base repository is owner/name.
func pull(number int, state, owner, name string) *gogithub.PullRequest {
	return &gogithub.PullRequest{
		Number:   gogithub.Int(number),
		State:    gogithub.String(state),
		IssueURL: gogithub.String(fmt.Sprintf("https://api.github.com/repos/%s/%s/issues/%d", owner, name, number)),
		Head:     &gogithub.PullRequestBranch{SHA: gogithub.String("abc123")},
		Base: &gogithub.PullRequestBranch{
			Repo: &gogithub.Repository{
				Name:  gogithub.String(name),
				Owner: &gogithub.User{Login: gogithub.String(owner)},
			},
		},
	}
}
