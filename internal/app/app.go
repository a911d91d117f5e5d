package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nhle/pull-shared/internal/github"
	"github.com/nhle/pull-shared/internal/model"
	"github.com/nhle/pull-shared/internal/store"
	"github.com/nhle/pull-shared/internal/tracker"
	"github.com/nhle/pull-shared/internal/tracker/bugzilla"
	"github.com/nhle/pull-shared/internal/tracker/jira"
)

// ErrNoJournal is returned by commands that need the activity journal
// when it is disabled.
var ErrNoJournal = errors.New("activity journal is disabled")

// App holds the tracker and GitHub helpers built from one configuration.
type App struct {
	cfg      model.Config
	log      logrus.FieldLogger
	trackers *tracker.Dispatcher
	github   *github.Helper
	journal  *store.SQLiteStore
}

// Option configures App construction.
type Option func(*options)

type options struct {
	githubBaseURL string
	noJournal     bool
}

// WithGitHubBaseURL points the GitHub client at another API root,
// overriding github.base.url.
func WithGitHubBaseURL(u string) Option {
	return func(o *options) { o.githubBaseURL = u }
}

// WithoutJournal disables the activity journal regardless of
// configuration.
func WithoutJournal() Option {
	return func(o *options) { o.noJournal = true }
}

// New builds the tracker clients, the dispatcher and the GitHub helper
// from cfg. The journal is opened when cfg.Journal.Path is set.
func New(ctx context.Context, cfg model.Config, log logrus.FieldLogger, opts ...Option) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bugs := bugzilla.NewClient(cfg.Bugzilla.BaseURL, cfg.Bugzilla.Login, cfg.Bugzilla.Password, log)
	issues, err := jira.NewClient(cfg.Jira.BaseURL, cfg.Jira.Login, cfg.Jira.Password, log)
	if err != nil {
		return nil, fmt.Errorf("creating JIRA client: %w", err)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		trackers: tracker.NewDispatcher(bugs, issues, log),
	}

	ghOpts := []github.Option{github.WithLogger(log)}
	if !o.noJournal && cfg.Journal.Path != "" {
		a.journal, err = openJournal(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		ghOpts = append(ghOpts, github.WithJournal(a.journal))
	}

	baseURL := cfg.GitHub.BaseURL
	if o.githubBaseURL != "" {
		baseURL = o.githubBaseURL
	}
	client := github.NewClient(ctx, cfg.GitHub.Token, log)
	if baseURL != "" {
		base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parsing GitHub base URL: %w", err)
		}
		client.BaseURL = base
	}
	a.github = github.New(cfg.GitHub, client, ghOpts...)

	return a, nil
}

func openJournal(path string) (*store.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return s, nil
}

// Trackers returns the issue helper spanning Bugzilla and JIRA.
func (a *App) Trackers() tracker.Helper {
	return a.trackers
}

// GitHub returns the helper for the configured repository.
func (a *App) GitHub() *github.Helper {
	return a.github
}

// Journal returns the activity journal, or nil when it is disabled.
func (a *App) Journal() store.Journal {
	if a.journal == nil {
		return nil
	}
	return a.journal
}

// Close releases the journal database, if open.
func (a *App) Close() error {
	if a.journal == nil {
		return nil
	}
	return a.journal.Close()
}
