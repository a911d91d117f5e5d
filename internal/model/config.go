package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Property keys recognised in the configuration file. Nested YAML maps
// and PULLHELPER_* environment variables resolve to the same dotted keys.
const (
	KeyBugzillaBaseURL  = "bugzilla.base.url"
	KeyBugzillaLogin    = "bugzilla.login"
	KeyBugzillaPassword = "bugzilla.password"
	KeyJiraLogin        = "jira.login"
	KeyJiraPassword     = "jira.password"
	KeyJiraBaseURL      = "jira.base.url"
	KeyGitHubOrg        = "github.organization"
	KeyGitHubRepo       = "github.repo"
	KeyGitHubLogin      = "github.login"
	KeyGitHubToken      = "github.token"
	KeyGitHubBaseURL    = "github.base.url"
	KeyJournalPath      = "journal.path"
)

// DefaultBugzillaBaseURL is used when bugzilla.base.url is not configured.
const DefaultBugzillaBaseURL = "https://bugzilla.redhat.com/"

// EnvPrefix is prepended to environment overrides, e.g.
// PULLHELPER_JIRA_BASE_URL for jira.base.url.
const EnvPrefix = "PULLHELPER"

// secretKeys may be resolved from the keyring when absent from the file
// and the environment.
var secretKeys = map[string]bool{
	KeyBugzillaPassword: true,
	KeyJiraPassword:     true,
	KeyGitHubToken:      true,
}

// IsSecretKey reports whether key may be stored in the keyring.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// MissingPropertyError reports a required property that has no value.
type MissingPropertyError struct {
	Key string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("missing required property %q", e.Key)
}

// IsMissingProperty reports whether err (or any error in its chain) is a
// MissingPropertyError.
func IsMissingProperty(err error) bool {
	var missing *MissingPropertyError
	return errors.As(err, &missing)
}

// SecretLookup resolves a secret by property key. It returns "" with a nil
// error when the secret is simply not stored.
type SecretLookup func(key string) (string, error)

// BugzillaConfig holds the Bugzilla endpoint and credentials.
type BugzillaConfig struct {
	BaseURL  string
	Login    string
	Password string
}

// JiraConfig holds the JIRA endpoint and credentials.
type JiraConfig struct {
	BaseURL  string
	Login    string
	Password string
}

// GitHubConfig identifies the repository the GitHub helper works against.
type GitHubConfig struct {
	Organization string
	Repo         string
	Login        string

	// Token is optional; an empty token yields an unauthenticated client.
	Token string

	// BaseURL overrides the API root, e.g. for GitHub Enterprise.
	BaseURL string
}

// JournalConfig locates the activity journal database.
type JournalConfig struct {
	Path string
}

// Config is the validated, read-only configuration for all trackers.
// It is loaded once and passed by value to constructors.
type Config struct {
	Bugzilla BugzillaConfig
	Jira     JiraConfig
	GitHub   GitHubConfig
	Journal  JournalConfig
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/pullhelper/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "pullhelper", "config.yaml")
}

// DefaultJournalPath returns ~/.config/pullhelper/journal.db.
func DefaultJournalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "journal.db")
	}
	return filepath.Join(home, ".config", "pullhelper", "journal.db")
}

// ResolveConfigPath picks the configuration file: an explicit flag value
// first, then the file named by the envVar environment variable, then
// DefaultConfigPath.
func ResolveConfigPath(flagValue, envVar string) string {
	if flagValue != "" {
		return flagValue
	}
	if envVar != "" {
		if p := os.Getenv(envVar); p != "" {
			return p
		}
	}
	return DefaultConfigPath()
}

// LoadConfig reads the configuration file at path with Viper, applies
// PULLHELPER_* environment overrides and falls back to secrets for
// password and token keys. A missing file is not an error on its own;
// a missing required property is, and aborts loading with the key name.
func LoadConfig(path string, secrets SecretLookup) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBugzillaBaseURL, DefaultBugzillaBaseURL)
	v.SetDefault(KeyJournalPath, DefaultJournalPath())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	l := loader{v: v, secrets: secrets}

	cfg := Config{
		Bugzilla: BugzillaConfig{
			BaseURL:  l.optional(KeyBugzillaBaseURL),
			Login:    l.require(KeyBugzillaLogin),
			Password: l.require(KeyBugzillaPassword),
		},
		Jira: JiraConfig{
			Login:    l.require(KeyJiraLogin),
			Password: l.require(KeyJiraPassword),
			BaseURL:  l.require(KeyJiraBaseURL),
		},
		GitHub: GitHubConfig{
			Organization: l.require(KeyGitHubOrg),
			Repo:         l.require(KeyGitHubRepo),
			Login:        l.require(KeyGitHubLogin),
			Token:        l.optional(KeyGitHubToken),
			BaseURL:      l.optional(KeyGitHubBaseURL),
		},
		Journal: JournalConfig{
			Path: l.optional(KeyJournalPath),
		},
	}

	if l.err != nil {
		return Config{}, l.err
	}
	return cfg, nil
}

// loader resolves keys in declaration order and keeps the first failure.
type loader struct {
	v       *viper.Viper
	secrets SecretLookup
	err     error
}

func (l *loader) lookup(key string) string {
	if l.err != nil {
		return ""
	}
	if value := strings.TrimSpace(l.v.GetString(key)); value != "" {
		return value
	}
	if !secretKeys[key] || l.secrets == nil {
		return ""
	}
	value, err := l.secrets(key)
	if err != nil {
		l.err = fmt.Errorf("looking up secret %q: %w", key, err)
		return ""
	}
	return value
}

func (l *loader) require(key string) string {
	value := l.lookup(key)
	if value == "" && l.err == nil {
		l.err = &MissingPropertyError{Key: key}
	}
	return value
}

func (l *loader) optional(key string) string {
	return l.lookup(key)
}
