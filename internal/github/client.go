package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/auth"
)

const githubHost = "github.com"

// Credentials selects how API requests are authenticated. Token wins over
// username/password; with neither, the ambient gh/GITHUB_TOKEN login is used
// when present and requests go out anonymously otherwise.
type Credentials struct {
	Username string
	Password string
	Token    string
}

func (c Credentials) empty() bool {
	return c.Username == "" && c.Password == "" && c.Token == ""
}

// Client wraps GitHub API operations for a single repository.
type Client struct {
	rest  *api.RESTClient
	owner string
	repo  string

	authenticated bool

	// Last-seen rate limit state, updated from response headers.
	// rateRemaining is -1 until the first response arrives.
	rateRemaining int
	rateReset     time.Time
}

// NewClient creates a client for owner/repo and verifies that both the
// owner and the repository exist before any expensive call is made.
func NewClient(ctx context.Context, owner, repo string, creds Credentials) (*Client, error) {
	ambientToken, _ := auth.TokenForHost(githubHost)
	opts, authenticated := clientOptions(creds, ambientToken)

	rest, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	c := &Client{
		rest:          rest,
		owner:         owner,
		repo:          repo,
		authenticated: authenticated,
		rateRemaining: -1,
	}

	if err := c.checkOwner(ctx); err != nil {
		return nil, err
	}
	if err := c.checkRepo(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// clientOptions maps the credential mode onto go-gh client options and
// reports whether the resulting client is authenticated. go-gh refuses to
// build a client without a token unless a transport is supplied, so the
// basic-auth and anonymous modes carry an explicit default transport; for
// basic auth the Authorization header rides on top of it.
func clientOptions(creds Credentials, ambientToken string) (api.ClientOptions, bool) {
	opts := api.ClientOptions{Host: githubHost}

	switch {
	case creds.Token != "":
		opts.AuthToken = creds.Token
		return opts, true
	case creds.Username != "":
		basic := base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
		opts.Headers = map[string]string{"Authorization": "Basic " + basic}
		opts.Transport = http.DefaultTransport
		return opts, true
	case ambientToken != "":
		opts.AuthToken = ambientToken
		return opts, true
	}

	opts.Transport = http.DefaultTransport
	return opts, false
}

// ParseRepo splits "owner/repo" into owner and repo.
func ParseRepo(fullRepo string) (string, string, error) {
	parts := strings.Split(fullRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format: %s (expected owner/repo)", fullRepo)
	}
	return parts[0], parts[1], nil
}

// FullRepo returns the owner/repo identifier the client was built for.
func (c *Client) FullRepo() string {
	return c.owner + "/" + c.repo
}

func (c *Client) checkOwner(ctx context.Context) error {
	err := c.get(ctx, fmt.Sprintf("users/%s", c.owner), nil)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &NotFoundError{Resource: "organization/user", Name: c.owner}
	}
	return err
}

func (c *Client) checkRepo(ctx context.Context) error {
	err := c.get(ctx, fmt.Sprintf("repos/%s/%s", c.owner, c.repo), nil)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &NotFoundError{Resource: "repository", Name: c.FullRepo()}
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues one API request through the rate-limit guard, records the
// rate-limit headers of the response and maps HTTP failures onto the
// typed error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	if err := c.checkRate(); err != nil {
		return err
	}

	resp, err := c.rest.RequestWithContext(ctx, method, path, body)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) {
			c.noteRate(httpErr.Headers)
			return c.mapError(httpErr)
		}
		return err
	}
	defer resp.Body.Close()
	c.noteRate(resp.Header)

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// checkRate fails fast when the last response reported an exhausted call
// budget, instead of issuing a request that is known to fail.
func (c *Client) checkRate() error {
	if c.rateRemaining == 0 {
		return &RateLimitError{Reset: c.rateReset, Authenticated: c.authenticated}
	}
	return nil
}

func (c *Client) noteRate(headers http.Header) {
	if headers == nil {
		return
	}
	if v := headers.Get("X-Ratelimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.rateRemaining = n
		}
	}
	if v := headers.Get("X-Ratelimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.rateReset = time.Unix(n, 0)
		}
	}
}

func (c *Client) mapError(httpErr *api.HTTPError) error {
	switch httpErr.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return &NotFoundError{Resource: "resource", Name: httpErr.RequestURL.Path}
	case http.StatusUnauthorized:
		return &AuthenticationError{}
	case http.StatusForbidden:
		if c.rateRemaining == 0 {
			return &RateLimitError{Reset: c.rateReset, Authenticated: c.authenticated}
		}
		return &AuthenticationError{Reason: httpErr.Message}
	}
	return httpErr
}
