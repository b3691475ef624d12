package github

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/loghub-dev/loghub/pkg/models"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		input     string
		owner     string
		repo      string
		expectErr bool
	}{
		{input: "spyder-ide/spyder", owner: "spyder-ide", repo: "spyder"},
		{input: "owner/repo", owner: "owner", repo: "repo"},
		{input: "no-slash", expectErr: true},
		{input: "too/many/parts", expectErr: true},
		{input: "/repo", expectErr: true},
		{input: "owner/", expectErr: true},
		{input: "", expectErr: true},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepo(tt.input)
		if tt.expectErr {
			if err == nil {
				t.Errorf("ParseRepo(%q) accepted an invalid repo", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRepo(%q) failed: %v", tt.input, err)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRepo(%q) = %s, %s; want %s, %s", tt.input, owner, repo, tt.owner, tt.repo)
		}
	}
}

func TestClientOptions(t *testing.T) {
	t.Run("explicit token", func(t *testing.T) {
		opts, authenticated := clientOptions(Credentials{Token: "tok"}, "ambient")
		if opts.AuthToken != "tok" {
			t.Errorf("AuthToken = %q, want the explicit token", opts.AuthToken)
		}
		if opts.Transport != nil {
			t.Error("token mode should let go-gh build its own transport")
		}
		if !authenticated {
			t.Error("token mode should count as authenticated")
		}
	})

	t.Run("token wins over basic", func(t *testing.T) {
		opts, _ := clientOptions(Credentials{Username: "octocat", Password: "s3cret", Token: "tok"}, "")
		if opts.AuthToken != "tok" || opts.Headers != nil {
			t.Errorf("token should win over username/password: %+v", opts)
		}
	})

	t.Run("basic auth", func(t *testing.T) {
		opts, authenticated := clientOptions(Credentials{Username: "octocat", Password: "s3cret"}, "ambient")
		if got := opts.Headers["Authorization"]; got != "Basic b2N0b2NhdDpzM2NyZXQ=" {
			t.Errorf("Authorization header = %q", got)
		}
		if opts.AuthToken != "" {
			t.Errorf("basic auth must not set a token, got %q", opts.AuthToken)
		}
		// Without a token go-gh demands an explicit transport.
		if opts.Transport == nil {
			t.Error("basic auth mode must carry a transport")
		}
		if !authenticated {
			t.Error("basic auth should count as authenticated")
		}
	})

	t.Run("ambient token", func(t *testing.T) {
		opts, authenticated := clientOptions(Credentials{}, "ambient")
		if opts.AuthToken != "ambient" {
			t.Errorf("AuthToken = %q, want the ambient token", opts.AuthToken)
		}
		if !authenticated {
			t.Error("ambient token should count as authenticated")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		opts, authenticated := clientOptions(Credentials{}, "")
		if opts.AuthToken != "" || opts.Headers != nil {
			t.Errorf("anonymous mode must not authenticate: %+v", opts)
		}
		if opts.Transport == nil {
			t.Error("anonymous mode must carry a transport")
		}
		if authenticated {
			t.Error("anonymous mode reported as authenticated")
		}
	})
}

func TestCredentialsEmpty(t *testing.T) {
	if !(Credentials{}).empty() {
		t.Error("zero credentials should be empty")
	}
	if (Credentials{Token: "tok"}).empty() {
		t.Error("token credentials should not be empty")
	}
	if (Credentials{Username: "u", Password: "p"}).empty() {
		t.Error("basic credentials should not be empty")
	}
}

func TestRateGuard(t *testing.T) {
	c := &Client{rateRemaining: -1}

	// Unknown budget never blocks.
	if err := c.checkRate(); err != nil {
		t.Fatalf("checkRate() with unknown budget failed: %v", err)
	}

	headers := http.Header{}
	headers.Set("X-Ratelimit-Remaining", "2")
	headers.Set("X-Ratelimit-Reset", "1486000000")
	c.noteRate(headers)
	if c.rateRemaining != 2 {
		t.Errorf("rateRemaining = %d, want 2", c.rateRemaining)
	}
	if err := c.checkRate(); err != nil {
		t.Fatalf("checkRate() with budget left failed: %v", err)
	}

	headers.Set("X-Ratelimit-Remaining", "0")
	c.noteRate(headers)
	err := c.checkRate()
	rateErr, ok := err.(*RateLimitError)
	if !ok {
		t.Fatalf("checkRate() with exhausted budget = %v, want RateLimitError", err)
	}
	if !rateErr.Reset.Equal(time.Unix(1486000000, 0)) {
		t.Errorf("reset time = %v", rateErr.Reset)
	}
}

func TestNoteRate_IgnoresMissingHeaders(t *testing.T) {
	c := &Client{rateRemaining: 5}
	c.noteRate(nil)
	c.noteRate(http.Header{})
	if c.rateRemaining != 5 {
		t.Errorf("rateRemaining changed to %d without headers", c.rateRemaining)
	}
}

func TestErrorMessages(t *testing.T) {
	nf := &NotFoundError{Resource: "milestone", Name: "v9.9", Valid: []string{"v0.1", "v0.2"}}
	if got := nf.Error(); !strings.Contains(got, `milestone "v9.9" not found`) ||
		!strings.Contains(got, "v0.1, v0.2") {
		t.Errorf("NotFoundError message = %q", got)
	}

	auth := &AuthenticationError{}
	if !strings.Contains(auth.Error(), "credentials") {
		t.Errorf("AuthenticationError message = %q", auth.Error())
	}

	rate := &RateLimitError{Reset: time.Unix(1486000000, 0)}
	if got := rate.Error(); !strings.Contains(got, "rate limit") ||
		!strings.Contains(got, "username/password or a token") {
		t.Errorf("anonymous RateLimitError message = %q", got)
	}
	rate.Authenticated = true
	if strings.Contains(rate.Error(), "username/password") {
		t.Errorf("authenticated RateLimitError should not suggest credentials: %q", rate.Error())
	}
}

func TestIssueToModel(t *testing.T) {
	t.Run("labels flattened", func(t *testing.T) {
		w := &issue{
			Number: 34,
			Labels: []models.Label{{Name: "type:bug", Color: "ff0000"}, {Name: "docs"}},
		}
		m := w.toModel()
		if len(m.LabelNames) != 2 || m.LabelNames[0] != "type:bug" || m.LabelNames[1] != "docs" {
			t.Errorf("LabelNames = %v", m.LabelNames)
		}
	})

	t.Run("pull request marker", func(t *testing.T) {
		w := &issue{
			Number:  45,
			HTMLURL: "https://github.com/spyder-ide/loghub/pull/45",
			PullRequest: &struct {
				URL string `json:"url"`
			}{URL: "https://api.github.com/repos/spyder-ide/loghub/pulls/45"},
		}
		m := w.toModel()
		if !m.PullRequest {
			t.Error("pull_request marker not normalized to PullRequest=true")
		}
	})

	t.Run("plain issue", func(t *testing.T) {
		w := &issue{Number: 34, Milestone: &struct {
			Title string `json:"title"`
		}{Title: "v0.2"}}
		m := w.toModel()
		if m.PullRequest {
			t.Error("plain issue normalized as a pull request")
		}
		if m.Milestone != "v0.2" {
			t.Errorf("milestone title = %q, want v0.2", m.Milestone)
		}
		if m.RelatedPulls == nil || m.RelatedIssues == nil {
			t.Error("relation lists should start empty, not nil")
		}
	})
}
