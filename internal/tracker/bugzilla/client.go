package bugzilla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/pull-shared/internal/tracker"
)

// Bugzilla fault codes that mean the bug is not visible to us.
const (
	codeInvalidBugID = 100
	codeBugNotFound  = 101
)

// Client is a thin HTTP client for the Bugzilla 5 REST API. Credentials
// are sent as login/password query parameters on every request.
type Client struct {
	baseURL    string
	login      string
	password   string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient creates a new Bugzilla client. The baseURL is the root of
// the Bugzilla instance (e.g., https://bugzilla.redhat.com/).
func NewClient(baseURL, login, password string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		login:    login,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithField("tracker", tracker.TypeBugzilla),
	}
}

// GetBug fetches bug id together with its description (comment #0). A
// failed comment lookup leaves the description empty.
func (c *Client) GetBug(ctx context.Context, id int) (tracker.Issue, error) {
	bug, err := c.Bug(ctx, id)
	if err != nil {
		return nil, err
	}
	return bug, nil
}

// Bug is like GetBug but returns the concrete *Bug.
func (c *Client) Bug(ctx context.Context, id int) (*Bug, error) {
	var resp bugResponse
	if err := c.get(ctx, "/rest/bug/"+strconv.Itoa(id), &resp); err != nil {
		return nil, fmt.Errorf("fetching bug %d: %w", id, err)
	}
	if len(resp.Bugs) == 0 {
		return nil, fmt.Errorf("fetching bug %d: %w", id, tracker.ErrNotFound)
	}

	bug := resp.Bugs[0]
	bug.url = c.baseURL + "/show_bug.cgi?id=" + strconv.Itoa(bug.Number)

	// The description is best-effort: comment #0 may be private.
	comments, err := c.Comments(ctx, id)
	if err != nil {
		c.log.WithError(err).WithField("bug", id).Warn("bug description unavailable")
	}
	for _, comment := range comments {
		if comment.Count == 0 {
			bug.Description = comment.Text
			break
		}
	}

	return &bug, nil
}

// Comments returns all comments on bug id in creation order.
func (c *Client) Comments(ctx context.Context, id int) ([]Comment, error) {
	var resp commentsResponse
	path := fmt.Sprintf("/rest/bug/%d/comment", id)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching comments for bug %d: %w", id, err)
	}
	return resp.Bugs[strconv.Itoa(id)].Comments, nil
}

// get performs an authenticated GET and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	query := url.Values{}
	if c.login != "" {
		query.Set("login", c.login)
		query.Set("password", c.password)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.WithField("path", path).Debug("bugzilla request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	// Bugzilla may report faults with a 200 status, so the error body is
	// checked before the status code.
	var bzErr errorResponse
	if json.Unmarshal(body, &bzErr) == nil && bzErr.Error {
		if bzErr.Code == codeBugNotFound || bzErr.Code == codeInvalidBugID {
			return fmt.Errorf("%s: %w", bzErr.Message, tracker.ErrNotFound)
		}
		return &tracker.APIError{
			Tracker:    tracker.TypeBugzilla,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("code %d: %s", bzErr.Code, bzErr.Message),
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, tracker.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &tracker.APIError{
			Tracker:    tracker.TypeBugzilla,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
	}
	return nil
}
