package models

import (
	"fmt"
	"strings"
	"time"
)

// Issue represents a GitHub issue or pull request with its metadata.
// Both kinds share one record shape; PullRequest is decided once when the
// API response is normalized and is never re-derived downstream.
type Issue struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"` // "open" or "closed"
	Labels      []Label    `json:"labels"`
	HTMLURL     string     `json:"html_url"`
	ClosedAt    *time.Time `json:"closed_at"`
	Milestone   string     `json:"milestone"`
	PullRequest bool       `json:"pull_request"`

	// Merged and BaseBranch are annotated by the client for pull requests
	// before branch filtering; both are zero for plain issues.
	Merged     bool   `json:"merged"`
	BaseBranch string `json:"base_branch"`

	// Fields computed during a filtering pass.
	LabelNames    []string  `json:"label_names"`
	RelatedPulls  []Related `json:"related_pulls"`
	RelatedIssues []Related `json:"related_issues"`
}

// Related is a cross-reference to another issue or pull request.
type Related struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Label represents a GitHub label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Milestone represents a GitHub milestone.
type Milestone struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	State    string     `json:"state"`
	ClosedAt *time.Time `json:"closed_at"`
}

// Tag represents an annotated git tag.
type Tag struct {
	Name     string    `json:"name"`
	SHA      string    `json:"sha"`
	TaggedAt time.Time `json:"tagged_at"`
}

// LabelGroup maps a tracker label to a changelog section heading.
type LabelGroup struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

// GroupedIssues is one rendered changelog section: a heading and its members.
// A slice of these stands in for an ordered mapping from name to issue list.
type GroupedIssues struct {
	Name   string
	Issues []*Issue
}

// Ref returns the record's short reference, e.g. "#64".
func (i *Issue) Ref() string {
	return fmt.Sprintf("#%d", i.Number)
}

// HasLabel reports whether the record carries the given label.
func (i *Issue) HasLabel(name string) bool {
	for _, l := range i.LabelNames {
		if l == name {
			return true
		}
	}
	return false
}

// JoinedLabels returns all label names joined by a single space, the shape
// the label regex filters match against.
func (i *Issue) JoinedLabels() string {
	return strings.Join(i.LabelNames, " ")
}
