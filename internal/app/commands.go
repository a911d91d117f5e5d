package app

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/nhle/pull-shared/internal/crossref"
	"github.com/nhle/pull-shared/internal/github"
	"github.com/nhle/pull-shared/internal/store"
	"github.com/nhle/pull-shared/internal/theme"
)

// DefaultHistoryLimit caps the number of journal entries ShowHistory prints.
const DefaultHistoryLimit = 20

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", theme.LabelStyle.Render(label), value)
}

// ShowIssue finds id on Bugzilla or JIRA and prints it.
func (a *App) ShowIssue(ctx context.Context, w io.Writer, id string) error {
	issue, err := a.trackers.FindIssue(ctx, id)
	if err != nil {
		return err
	}

	name := string(issue.Tracker())
	fmt.Fprintln(w, theme.HeaderStyle.Render(issue.ID())+" "+theme.TrackerLabelStyle(name).Render(name))
	field(w, "Summary", issue.Summary())
	field(w, "Status", theme.StatusStyle(issue.Status()).Render(issue.Status()))
	field(w, "URL", issue.URL())
	if body := issue.Body(); body != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, body)
	}
	return nil
}

// ShowPullRequest prints pull request number with its merged state.
func (a *App) ShowPullRequest(ctx context.Context, w io.Writer, number int) error {
	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}

	state := pr.GetState()
	if a.github.IsMerged(ctx, pr) {
		state = "merged"
	}

	fmt.Fprintln(w, theme.HeaderStyle.Render("#"+strconv.Itoa(pr.GetNumber()))+" "+pr.GetTitle())
	field(w, "State", theme.StatusStyle(state).Render(state))
	field(w, "Author", pr.GetUser().GetLogin())
	field(w, "Head", pr.GetHead().GetRef()+" "+pr.GetHead().GetSHA())
	field(w, "Base", pr.GetBase().GetRef())
	field(w, "URL", pr.GetHTMLURL())
	return nil
}

// ShowReferences prints the issues that pull request number mentions in
// its head branch, title or description, resolved against the trackers.
// Unresolvable references are printed with the lookup error.
func (a *App) ShowReferences(ctx context.Context, w io.Writer, number int) error {
	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}

	ids := crossref.MatchPullRequest(pr.GetHead().GetRef(), pr.GetTitle(), pr.GetBody(), nil)
	if len(ids) == 0 {
		fmt.Fprintln(w, theme.HelpStyle.Render("no issue references"))
		return nil
	}
	for _, id := range ids {
		issue, err := a.trackers.FindIssue(ctx, id)
		if err != nil {
			a.log.WithError(err).WithField("id", id).Debug("unresolved reference")
			fmt.Fprintf(w, "%s %s\n", theme.LabelStyle.Render(id), theme.ErrorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", theme.LabelStyle.Render(id),
			theme.StatusStyle(issue.Status()).Render(issue.Status()), issue.Summary())
	}
	return nil
}

// ShowMerged prints "true" or "false" for pull request number.
func (a *App) ShowMerged(ctx context.Context, w io.Writer, number int) error {
	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strconv.FormatBool(a.github.IsMerged(ctx, pr)))
	return nil
}

// ShowComments prints the comments of pull request number. With a
// non-empty pattern only the last matching comment is printed.
func (a *App) ShowComments(ctx context.Context, w io.Writer, number int, pattern string) error {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return fmt.Errorf("compiling --match pattern: %w", err)
		}
	}

	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}

	if re == nil {
		comments, err := a.github.Repo().ListComments(ctx, pr)
		if err != nil {
			return err
		}
		for _, c := range comments {
			fmt.Fprintf(w, "%s %s\n", theme.LabelStyle.Render(c.GetUser().GetLogin()), c.GetBody())
		}
		return nil
	}

	c := a.github.LastMatchingComment(ctx, pr, re)
	if c == nil {
		fmt.Fprintln(w, theme.HelpStyle.Render("no matching comment"))
		return nil
	}
	fmt.Fprintf(w, "%s %s\n", theme.LabelStyle.Render(c.GetUser().GetLogin()), c.GetBody())
	return nil
}

// ShowMilestones prints open milestones followed by closed ones.
func (a *App) ShowMilestones(ctx context.Context, w io.Writer) error {
	milestones, err := a.github.Repo().ListMilestones(ctx)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		fmt.Fprintf(w, "%s %s\n", theme.LabelStyle.Render(strconv.Itoa(m.GetNumber())), m.GetTitle())
	}
	return nil
}

// ShowBranches prints the repository's branch names.
func (a *App) ShowBranches(ctx context.Context, w io.Writer) error {
	branches, err := a.github.Repo().ListBranches(ctx)
	if err != nil {
		return err
	}
	for _, b := range branches {
		fmt.Fprintln(w, b.GetName())
	}
	return nil
}

// PostStatus posts a commit status on the head commit of pull request
// number. An empty label leaves the status context to GitHub's default.
func (a *App) PostStatus(ctx context.Context, w io.Writer, number int, state, targetURL, label string) error {
	switch state {
	case github.StatusPending, github.StatusSuccess, github.StatusFailure, github.StatusError:
	default:
		return fmt.Errorf("invalid status state %q", state)
	}

	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}

	var opts []github.StatusOption
	if label != "" {
		opts = append(opts, github.WithStatusContext(label))
	}
	if err := a.github.Repo().CreateStatus(ctx, pr, targetURL, state, opts...); err != nil {
		return err
	}
	fmt.Fprintf(w, "posted %s on %s\n", theme.StatusStyle(state).Render(state), pr.GetHead().GetSHA())
	return nil
}

// PostComment adds text as a comment on pull request number.
func (a *App) PostComment(ctx context.Context, w io.Writer, number int, text string) error {
	pr, err := a.github.Repo().GetPullRequest(ctx, number)
	if err != nil {
		return err
	}
	if err := a.github.Repo().CreateComment(ctx, pr, text); err != nil {
		return err
	}
	fmt.Fprintf(w, "commented on #%d\n", number)
	return nil
}

// ShowHistory prints the most recent journal entries, newest first.
func (a *App) ShowHistory(ctx context.Context, w io.Writer, limit int) error {
	if a.journal == nil {
		return ErrNoJournal
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	activities, err := a.journal.List(ctx, store.ActivityFilter{Limit: limit})
	if err != nil {
		return fmt.Errorf("listing journal: %w", err)
	}
	for _, act := range activities {
		outcome := theme.StatusStyle("success").Render("ok")
		if !act.Succeeded {
			outcome = theme.StatusStyle("failure").Render("failed: " + act.Error)
		}
		fmt.Fprintf(w, "%s %-10s %s#%d %s %s\n",
			act.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			act.Kind, act.Repository, act.Number, act.Detail, outcome)
	}
	return nil
}
