package github

import (
	"fmt"
	"strings"
	"time"
)

// NotFoundError reports an unknown organization, repository, milestone or
// tag. Valid carries the known values when they were cheap to collect, so
// the user-facing message can list them.
type NotFoundError struct {
	Resource string // "organization/user", "repository", "milestone", "tag"
	Name     string
	Valid    []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Resource, e.Name)
	if len(e.Valid) > 0 {
		msg += fmt.Sprintf(" (valid %ss: %s)", e.Resource, strings.Join(e.Valid, ", "))
	}
	return msg
}

// AuthenticationError reports invalid credentials.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "the supplied credentials seem to be invalid"
	}
	return e.Reason
}

// RateLimitError reports an exhausted API call budget.
type RateLimitError struct {
	Reset         time.Time
	Authenticated bool
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("GitHub API rate limit exceeded, resets at %s",
		e.Reset.UTC().Format("2006/01/02 15:04"))
	if !e.Authenticated {
		msg += " (try again with a username/password or a token)"
	}
	return msg
}
