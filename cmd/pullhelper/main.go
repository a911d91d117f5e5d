// Command pullhelper looks up Bugzilla and JIRA issues and inspects or
// updates pull requests on the configured GitHub repository.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nhle/pull-shared/internal/app"
	"github.com/nhle/pull-shared/internal/credential"
	"github.com/nhle/pull-shared/internal/model"
	"github.com/nhle/pull-shared/internal/theme"
)

// configEnvVar names the configuration file when --config is not given.
const configEnvVar = "PULLHELPER_CONFIG"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

// env carries what commands need from the process.
type env struct {
	stdout     io.Writer
	stderr     io.Writer
	log        *logrus.Logger
	configPath string

	openKeyring func() (*credential.Keyring, error)
	prompt      func(title string) (string, error)
}

type command struct {
	usage string
	run   func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"issue":      {"issue <id>", runIssue},
	"pr":         {"pr <number>", runPR},
	"merged":     {"merged <number>", runMerged},
	"refs":       {"refs <number>", runRefs},
	"comments":   {"comments <number> [--match regex]", runComments},
	"milestones": {"milestones", runMilestones},
	"branches":   {"branches", runBranches},
	"status":     {"status <number> --state <state> [--url url] [--context label]", runStatus},
	"comment":    {"comment <number> <text>", runComment},
	"history":    {"history [--limit n]", runHistory},
	"login":      {"login [--delete] <key>", runLogin},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	e := &env{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		log:         logrus.New(),
		openKeyring: credential.Open,
		prompt:      promptSecret,
	}
	code := run(ctx, os.Args[1:], e)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e *env) int {
	flags := pflag.NewFlagSet("pullhelper", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(e.stderr)
	configPath := flags.String("config", "", "configuration file (default $"+configEnvVar+" or "+model.DefaultConfigPath()+")")
	logLevel := flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Usage = func() { usage(e.stderr, flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() == 0 {
		usage(e.stderr, flags)
		return exitUsage
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(e.stderr, theme.ErrorStyle.Render(err.Error()))
		return exitUsage
	}
	e.log.SetOutput(e.stderr)
	e.log.SetLevel(level)
	e.configPath = model.ResolveConfigPath(*configPath, configEnvVar)

	name := flags.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(e.stderr, "unknown command %q\n\n", name)
		usage(e.stderr, flags)
		return exitUsage
	}

	if err := cmd.run(ctx, e, flags.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(e.stderr, theme.HelpStyle.Render("usage: pullhelper "+cmd.usage))
			return exitUsage
		}
		fmt.Fprintln(e.stderr, theme.ErrorStyle.Render("error: "+err.Error()))
		return exitError
	}
	return exitOK
}

func usage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: pullhelper [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, "  "+commands[name].usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fmt.Fprint(w, flags.FlagUsages())
}

// open loads the configuration and builds the App. Secrets missing from
// the file and environment are read from the keyring when it opens.
func (e *env) open(ctx context.Context) (*app.App, error) {
	var secrets model.SecretLookup
	if kr, err := e.openKeyring(); err != nil {
		e.log.WithError(err).Warn("keyring unavailable; secrets must come from the config file or environment")
	} else {
		secrets = kr.Lookup
	}

	cfg, err := model.LoadConfig(e.configPath, secrets)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	e.log.WithField("config", e.configPath).Debug("configuration loaded")

	return app.New(ctx, cfg, e.log)
}

// withApp runs fn against a freshly opened App and closes it afterwards.
func (e *env) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			e.log.WithError(err).Warn("closing journal")
		}
	}()
	return fn(a)
}

func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid pull request number %q", errUsage, arg)
	}
	return n, nil
}

// subcommand parses args for a command with its own flags and checks the
// positional count.
func subcommand(name string, args []string, positional int, define func(*pflag.FlagSet)) (*pflag.FlagSet, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	if define != nil {
		define(flags)
	}
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if flags.NArg() != positional {
		return nil, errUsage
	}
	return flags, nil
}

func runIssue(ctx context.Context, e *env, args []string) error {
	flags, err := subcommand("issue", args, 1, nil)
	if err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.ShowIssue(ctx, e.stdout, flags.Arg(0))
	})
}

func runPR(ctx context.Context, e *env, args []string) error {
	return withNumber(ctx, e, "pr", args, func(a *app.App, n int) error {
		return a.ShowPullRequest(ctx, e.stdout, n)
	})
}

func runMerged(ctx context.Context, e *env, args []string) error {
	return withNumber(ctx, e, "merged", args, func(a *app.App, n int) error {
		return a.ShowMerged(ctx, e.stdout, n)
	})
}

func runRefs(ctx context.Context, e *env, args []string) error {
	return withNumber(ctx, e, "refs", args, func(a *app.App, n int) error {
		return a.ShowReferences(ctx, e.stdout, n)
	})
}

func withNumber(ctx context.Context, e *env, name string, args []string, fn func(a *app.App, n int) error) error {
	flags, err := subcommand(name, args, 1, nil)
	if err != nil {
		return err
	}
	n, err := parseNumber(flags.Arg(0))
	if err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error { return fn(a, n) })
}

func runComments(ctx context.Context, e *env, args []string) error {
	var match string
	flags, err := subcommand("comments", args, 1, func(f *pflag.FlagSet) {
		f.StringVar(&match, "match", "", "print only the last comment matching this regular expression")
	})
	if err != nil {
		return err
	}
	n, err := parseNumber(flags.Arg(0))
	if err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.ShowComments(ctx, e.stdout, n, match)
	})
}

func runMilestones(ctx context.Context, e *env, args []string) error {
	if _, err := subcommand("milestones", args, 0, nil); err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.ShowMilestones(ctx, e.stdout)
	})
}

func runBranches(ctx context.Context, e *env, args []string) error {
	if _, err := subcommand("branches", args, 0, nil); err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.ShowBranches(ctx, e.stdout)
	})
}

func runStatus(ctx context.Context, e *env, args []string) error {
	var state, targetURL, label string
	flags, err := subcommand("status", args, 1, func(f *pflag.FlagSet) {
		f.StringVar(&state, "state", "", "pending, success, failure or error")
		f.StringVar(&targetURL, "url", "", "link shown next to the status")
		f.StringVar(&label, "context", "", "status context label")
	})
	if err != nil {
		return err
	}
	if state == "" {
		return errUsage
	}
	n, err := parseNumber(flags.Arg(0))
	if err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.PostStatus(ctx, e.stdout, n, state, targetURL, label)
	})
}

func runComment(ctx context.Context, e *env, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	n, err := parseNumber(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	return e.withApp(ctx, func(a *app.App) error {
		return a.PostComment(ctx, e.stdout, n, text)
	})
}

func runHistory(ctx context.Context, e *env, args []string) error {
	var limit int
	if _, err := subcommand("history", args, 0, func(f *pflag.FlagSet) {
		f.IntVar(&limit, "limit", app.DefaultHistoryLimit, "number of entries to show")
	}); err != nil {
		return err
	}
	return e.withApp(ctx, func(a *app.App) error {
		return a.ShowHistory(ctx, e.stdout, limit)
	})
}

// runLogin stores a password or token in the keyring so it can be left
// out of the configuration file.
func runLogin(_ context.Context, e *env, args []string) error {
	var remove bool
	flags, err := subcommand("login", args, 1, func(f *pflag.FlagSet) {
		f.BoolVar(&remove, "delete", false, "remove the stored secret")
	})
	if err != nil {
		return err
	}

	key := flags.Arg(0)
	if !model.IsSecretKey(key) {
		return fmt.Errorf("%q is not a secret property; use one of %s, %s or %s",
			key, model.KeyBugzillaPassword, model.KeyJiraPassword, model.KeyGitHubToken)
	}

	kr, err := e.openKeyring()
	if err != nil {
		return err
	}
	if remove {
		if err := kr.Delete(key); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "removed %s\n", key)
		return nil
	}

	secret, err := e.prompt(key)
	if err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("empty value for %s", key)
	}
	if err := kr.Set(key, secret); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "stored %s in the keyring\n", key)
	return nil
}

func promptSecret(title string) (string, error) {
	var secret string
	err := huh.NewInput().
		Title(title).
		Description("Stored in the system keyring").
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Run()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", title, err)
	}
	return strings.TrimSpace(secret), nil
}
