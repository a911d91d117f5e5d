package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	gogithub "github.com/google/go-github/v58/github"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pull-shared/internal/model"
	"github.com/nhle/pull-shared/internal/store"
	"github.com/nhle/pull-shared/internal/testutil"
)

var testConfig = model.GitHubConfig{
	Organization: "jbossas",
	Repo:         "jboss-eap",
	Login:        "pull-bot",
	Token:        "secret",
}

type fixture struct {
	prs    *fakePRs
	issues *fakeIssues
	repos  *fakeRepos
	hook   *logtest.Hook
	helper *Helper
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	f := &fixture{
		prs:    &fakePRs{pulls: map[repoKey]*gogithub.PullRequest{}, merged: map[repoKey]bool{}},
		issues: &fakeIssues{comments: map[repoKey][]*gogithub.IssueComment{}, milestones: map[string][]*gogithub.Milestone{}},
		repos:  &fakeRepos{},
		hook:   hook,
	}
	opts = append([]Option{WithLogger(log)}, opts...)
	f.helper = NewWithServices(testConfig, f.prs, f.issues, f.repos, opts...)
	return f
}

func (f *fixture) lastErrorLogged() bool {
	entry := f.hook.LastEntry()
	return entry != nil && entry.Level == logrus.ErrorLevel
}

func TestIsMerged_NotClosed(t *testing.T) {
	f := newFixture(t)
	pr := pull(1, StateOpen, "wildfly", "wildfly")
	f.prs.merged[repoKey{"wildfly", "wildfly", 1}] = true

	assert.False(t, f.helper.IsMerged(context.Background(), pr))
	assert.False(t, f.helper.IsMerged(context.Background(), nil))
}

func TestIsMerged_FlagSkipsComments(t *testing.T) {
	f := newFixture(t)
	pr := pull(2, StateClosed, "wildfly", "wildfly")
	f.prs.merged[repoKey{"wildfly", "wildfly", 2}] = true
	f.issues.commentErr = errBoom

	assert.True(t, f.helper.IsMerged(context.Background(), pr))
	assert.Empty(t, f.hook.AllEntries())
}

func TestIsMerged_CommentMarker(t *testing.T) {
	f := newFixture(t)
	pr := pull(3, StateClosed, "wildfly", "wildfly")
	f.issues.comments[repoKey{"wildfly", "wildfly", 3}] = []*gogithub.IssueComment{
		comment(1, "lgtm"),
		comment(2, "Merged via abc123"),
	}

	assert.True(t, f.helper.IsMerged(context.Background(), pr))
}

func TestIsMerged_UsesBaseRepository(t *testing.T) {
	f := newFixture(t)
	pr := pull(4, StateClosed, "wildfly", "wildfly")
	f.issues.comments[repoKey{"jbossas", "jboss-eap", 4}] = []*gogithub.IssueComment{comment(1, "merged")}

	assert.False(t, f.helper.IsMerged(context.Background(), pr))
}

func TestIsMerged_NoMarker(t *testing.T) {
	f := newFixture(t)
	pr := pull(5, StateClosed, "wildfly", "wildfly")
	f.issues.comments[repoKey{"wildfly", "wildfly", 5}] = []*gogithub.IssueComment{
		comment(1, "lgtm"),
		comment(2, "closing, superseded by #6"),
	}

	assert.False(t, f.helper.IsMerged(context.Background(), pr))
}

func TestIsMerged_FlagErrorFallsBackToComments(t *testing.T) {
	f := newFixture(t)
	pr := pull(6, StateClosed, "wildfly", "wildfly")
	f.prs.mergeErr = errBoom
	f.issues.comments[repoKey{"wildfly", "wildfly", 6}] = []*gogithub.IssueComment{comment(1, "MERGED")}

	assert.True(t, f.helper.IsMerged(context.Background(), pr))
	assert.True(t, f.lastErrorLogged())
}

func TestIsMerged_CommentErrorIsNotMerged(t *testing.T) {
	f := newFixture(t)
	pr := pull(7, StateClosed, "wildfly", "wildfly")
	f.issues.commentErr = errBoom

	assert.False(t, f.helper.IsMerged(context.Background(), pr))
	assert.True(t, f.lastErrorLogged())
}

func TestLastMatchingComment(t *testing.T) {
	f := newFixture(t)
	pr := pull(10, StateOpen, "jbossas", "jboss-eap")
	f.issues.comments[repoKey{"jbossas", "jboss-eap", 10}] = []*gogithub.IssueComment{
		comment(1, "retest this please"),
		comment(2, "lgtm"),
		comment(3, "Retest this please, flaky"),
	}
	pattern := regexp.MustCompile(`(?i)retest this please`)

	got := f.helper.LastMatchingComment(context.Background(), pr, pattern)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.GetID())

	assert.Nil(t, f.helper.LastMatchingComment(context.Background(), pr, regexp.MustCompile(`^ship it$`)))
	assert.Nil(t, f.helper.LastMatchingComment(context.Background(), nil, pattern))
}

func TestHelper_DefaultsOnFailure(t *testing.T) {
	f := newFixture(t)
	f.prs.err = errBoom
	f.issues.err = errBoom
	f.issues.commentErr = errBoom
	f.repos.err = errBoom
	ctx := context.Background()
	pr := pull(1, StateOpen, "jbossas", "jboss-eap")

	assert.Empty(t, f.helper.Branches(ctx))
	assert.NotNil(t, f.helper.Branches(ctx))
	assert.Nil(t, f.helper.PullRequest(ctx, 1))
	assert.Nil(t, f.helper.PullRequestIn(ctx, "wildfly", "wildfly", 1))
	assert.Empty(t, f.helper.PullRequests(ctx, StateOpen))
	assert.Empty(t, f.helper.Milestones(ctx))
	assert.Nil(t, f.helper.CreateMilestone(ctx, "7.4.0.GA"))
	assert.Nil(t, f.helper.Issue(ctx, pr))
	assert.Nil(t, f.helper.EditIssue(ctx, &gogithub.Issue{Number: gogithub.Int(1)}))
	assert.Empty(t, f.helper.Comments(ctx, pr))

	f.helper.PostStatus(ctx, pr, "https://ci.example.com/1", StatusPending)
	assert.True(t, f.lastErrorLogged())
	f.helper.PostComment(ctx, pr, "hello")
	assert.True(t, f.lastErrorLogged())
}

func TestHelper_PullRequests(t *testing.T) {
	f := newFixture(t)
	want := pull(1, StateOpen, "jbossas", "jboss-eap")
	f.prs.list = []*gogithub.PullRequest{want}
	f.prs.pulls[repoKey{"jbossas", "jboss-eap", 1}] = want
	f.prs.pulls[repoKey{"wildfly", "wildfly", 9}] = pull(9, StateClosed, "wildfly", "wildfly")

	ctx := context.Background()
	assert.Equal(t, []*gogithub.PullRequest{want}, f.helper.PullRequests(ctx, StateOpen))
	assert.Equal(t, StateOpen, f.prs.listState)
	assert.Same(t, want, f.helper.PullRequest(ctx, 1))
	assert.Equal(t, 9, f.helper.PullRequestIn(ctx, "wildfly", "wildfly", 9).GetNumber())
	assert.Equal(t, "pull-bot", f.helper.Login())
	assert.Equal(t, "jbossas/jboss-eap", f.helper.Repo().FullName())
}

func TestHelper_PostStatus(t *testing.T) {
	f := newFixture(t)
	pr := pull(1, StateOpen, "jbossas", "jboss-eap")

	f.helper.PostStatus(context.Background(), pr, "https://ci.example.com/1", StatusSuccess,
		WithStatusContext("ci/merge"), WithStatusDescription("build passed"))

	require.NotNil(t, f.repos.status)
	assert.Equal(t, "abc123", f.repos.statusRef)
	assert.Equal(t, StatusSuccess, f.repos.status.GetState())
	assert.Equal(t, "https://ci.example.com/1", f.repos.status.GetTargetURL())
	assert.Equal(t, "ci/merge", f.repos.status.GetContext())
	assert.Equal(t, "build passed", f.repos.status.GetDescription())
}

func TestHelper_Milestones_OpenThenClosed(t *testing.T) {
	f := newFixture(t)
	f.issues.milestones[StateOpen] = []*gogithub.Milestone{{Title: gogithub.String("7.4.1")}}
	f.issues.milestones[StateClosed] = []*gogithub.Milestone{{Title: gogithub.String("7.4.0")}}

	got := f.helper.Milestones(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "7.4.1", got[0].GetTitle())
	assert.Equal(t, "7.4.0", got[1].GetTitle())

	created := f.helper.CreateMilestone(context.Background(), "7.4.2")
	require.NotNil(t, created)
	assert.Equal(t, "7.4.2", f.issues.newTitle)
}

func TestHelper_IssueAndEdit(t *testing.T) {
	f := newFixture(t)
	f.issues.issues = map[int]*gogithub.Issue{
		42: {
			Number:    gogithub.Int(42),
			Title:     gogithub.String("Upgrade Undertow"),
			State:     gogithub.String(StateOpen),
			Milestone: &gogithub.Milestone{Number: gogithub.Int(3)},
			Labels:    []*gogithub.Label{{Name: gogithub.String("upgrade")}},
			Assignees: []*gogithub.User{{Login: gogithub.String("stuart")}},
		},
	}
	pr := pull(42, StateOpen, "jbossas", "jboss-eap")

	issue := f.helper.Issue(context.Background(), pr)
	require.NotNil(t, issue)
	assert.Equal(t, "Upgrade Undertow", issue.GetTitle())

	edited := f.helper.EditIssue(context.Background(), issue)
	require.NotNil(t, edited)
	require.NotNil(t, f.issues.edited)
	assert.Equal(t, 3, f.issues.edited.GetMilestone())
	require.NotNil(t, f.issues.edited.Labels)
	assert.Equal(t, []string{"upgrade"}, *f.issues.edited.Labels)
	require.NotNil(t, f.issues.edited.Assignees)
	assert.Equal(t, []string{"stuart"}, *f.issues.edited.Assignees)
}

func TestHelper_JournalsWrites(t *testing.T) {
	db := testutil.NewTestStore(t)
	f := newFixture(t, WithJournal(db))
	ctx := context.Background()
	pr := pull(1, StateOpen, "jbossas", "jboss-eap")

	f.helper.PostComment(ctx, pr, "retest this please")
	f.repos.err = errBoom
	f.helper.PostStatus(ctx, pr, "https://ci.example.com/1", StatusFailure)

	activities, err := db.List(ctx, store.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, activities, 2)

	status, posted := activities[0], activities[1]
	assert.Equal(t, model.ActivityStatus, status.Kind)
	assert.False(t, status.Succeeded)
	assert.Contains(t, status.Error, "boom")
	assert.Equal(t, "abc123", status.SHA)

	assert.Equal(t, model.ActivityComment, posted.Kind)
	assert.True(t, posted.Succeeded)
	assert.Equal(t, "jbossas/jboss-eap", posted.Repository)
	assert.Equal(t, 1, posted.Number)
	assert.Equal(t, "retest this please", posted.Detail)
}

func TestIssueNumberFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    int
		wantErr bool
	}{
		{url: "https://api.github.com/repos/o/r/issues/42", want: 42},
		{url: "https://github.com/o/r/issues/7", want: 7},
		{url: "https://github.com/o/r/issues/", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := IssueNumberFromURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIssueURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_AgainstServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/jbossas/jboss-eap/branches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"main"},{"name":"7.4.x"}]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	log, _ := logtest.NewNullLogger()
	client := NewClient(context.Background(), testConfig.Token, log)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	h := New(testConfig, client, WithLogger(log))
	branches := h.Branches(context.Background())
	require.Len(t, branches, 2)
	assert.Equal(t, "main", branches[0].GetName())
	assert.Equal(t, "7.4.x", branches[1].GetName())
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	for _, token := range []string{"", "secret"} {
		httpClient := newHTTPClient(context.Background(), token)
		assert.Equal(t, clientTimeout, httpClient.Timeout, "token %q", token)
		assert.NotSame(t, http.DefaultClient, httpClient)
	}
}

func TestNewClient_UnauthenticatedWarns(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	NewClient(context.Background(), "", log)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestEditIssue_NilIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.helper.Repo().EditIssue(ctx, nil)
	assert.ErrorIs(t, err, ErrNilIssue)

	assert.Nil(t, f.helper.EditIssue(ctx, nil))
	assert.True(t, f.lastErrorLogged())
	assert.Nil(t, f.issues.edited)
}
