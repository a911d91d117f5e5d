package jira

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/sirupsen/logrus"

	"github.com/nhle/pull-shared/internal/tracker"
)

// issueFields are requested on every lookup; the PR tooling needs nothing
// else.
var issueFields = []string{
	"summary", "description", "status", "resolution", "issuetype",
	"project", "assignee", "fixVersions", "labels",
}

// Client looks up JIRA issues through go-jira with HTTP basic auth.
type Client struct {
	client  *gojira.Client
	baseURL string
	log     logrus.FieldLogger
}

// NewClient creates a JIRA client for the instance at baseURL
// authenticating as login/password.
func NewClient(baseURL, login, password string, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	transport := gojira.BasicAuthTransport{
		Username: login,
		Password: password,
	}
	httpClient := transport.Client()
	httpClient.Timeout = 30 * time.Second

	client, err := gojira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("creating JIRA client for %s: %w", baseURL, err)
	}

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.WithField("tracker", tracker.TypeJira),
	}, nil
}

// GetIssue fetches the issue with the given key.
func (c *Client) GetIssue(ctx context.Context, key string) (tracker.Issue, error) {
	issue, err := c.Issue(ctx, key)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// Issue is like GetIssue but returns the concrete *Issue.
func (c *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	c.log.WithField("key", key).Debug("jira request")

	opts := &gojira.GetQueryOptions{
		Fields: strings.Join(issueFields, ","),
	}
	raw, resp, err := c.client.Issue.GetWithContext(ctx, key, opts)
	if err != nil {
		return nil, c.translateError(key, resp, err)
	}
	if raw == nil || raw.Fields == nil {
		return nil, fmt.Errorf("fetching JIRA issue %s: empty response", key)
	}

	return &Issue{
		raw: raw,
		url: c.baseURL + "/browse/" + raw.Key,
	}, nil
}

// translateError maps go-jira failures onto tracker errors.
func (c *Client) translateError(key string, resp *gojira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("fetching JIRA issue %s: %w", key, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("JIRA issue %s: %w", key, tracker.ErrNotFound)
	case http.StatusUnauthorized:
		return &tracker.APIError{
			Tracker:    tracker.TypeJira,
			StatusCode: resp.StatusCode,
			Message:    "authentication failed: check jira.login and jira.password",
		}
	default:
		return &tracker.APIError{
			Tracker:    tracker.TypeJira,
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
		}
	}
}
