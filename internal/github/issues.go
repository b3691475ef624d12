package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/loghub-dev/loghub/pkg/models"
)

// issuePageSize is the fixed page size for paginated issue listings.
const issuePageSize = 100

// IssueFilter narrows the server-side issue listing. Since is forwarded to
// the API; every other constraint is applied locally by the filter pipeline.
type IssueFilter struct {
	MilestoneNumber int // 0 means no milestone constraint
	State           string
	Since           time.Time
}

// issue mirrors the wire shape of one entry of the issues listing. It is
// normalized into models.Issue exactly once, at this boundary, so downstream
// code never guesses about key presence.
type issue struct {
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	State     string         `json:"state"`
	HTMLURL   string         `json:"html_url"`
	ClosedAt  *time.Time     `json:"closed_at"`
	Labels    []models.Label `json:"labels"`
	Milestone *struct {
		Title string `json:"title"`
	} `json:"milestone"`
	// Present on the issues endpoint only when the record is a pull request.
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

func (i *issue) toModel() *models.Issue {
	names := make([]string, len(i.Labels))
	for j, l := range i.Labels {
		names[j] = l.Name
	}

	m := &models.Issue{
		Number:        i.Number,
		Title:         i.Title,
		Body:          i.Body,
		State:         i.State,
		HTMLURL:       i.HTMLURL,
		ClosedAt:      i.ClosedAt,
		Labels:        i.Labels,
		LabelNames:    names,
		PullRequest:   i.PullRequest != nil,
		RelatedPulls:  []models.Related{},
		RelatedIssues: []models.Related{},
	}
	if i.Milestone != nil {
		m.Milestone = i.Milestone.Title
	}
	return m
}

// Issues fetches all issues and pull requests matching the filter, one page
// at a time until an empty page is returned.
func (c *Client) Issues(ctx context.Context, filter IssueFilter) ([]*models.Issue, error) {
	var all []*models.Issue

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(issuePageSize))
		if filter.MilestoneNumber != 0 {
			params.Set("milestone", strconv.Itoa(filter.MilestoneNumber))
		}
		if filter.State != "" {
			params.Set("state", filter.State)
		}
		if !filter.Since.IsZero() {
			params.Set("since", filter.Since.Format(time.RFC3339))
		}

		endpoint := fmt.Sprintf("repos/%s/%s/issues?%s", c.owner, c.repo, params.Encode())

		var result []issue
		if err := c.get(ctx, endpoint, &result); err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		if len(result) == 0 {
			break
		}
		for i := range result {
			all = append(all, result[i].toModel())
		}
	}

	return all, nil
}

// AnnotatePulls resolves the merge status of every pull request in the list
// and, when withBase is set, the branch it was merged into. The results land
// on the records themselves so the branch filter can stay a pure function.
func (c *Client) AnnotatePulls(ctx context.Context, issues []*models.Issue, withBase bool) error {
	for _, record := range issues {
		if !record.PullRequest {
			continue
		}
		merged, err := c.PullMerged(ctx, record.Number)
		if err != nil {
			return err
		}
		record.Merged = merged
		if withBase && merged {
			pull, err := c.Pull(ctx, record.Number)
			if err != nil {
				return err
			}
			record.BaseBranch = pull.BaseBranch
		}
	}
	return nil
}

// pull mirrors the wire shape of a single pull request.
type pull struct {
	Number int    `json:"number"`
	Merged bool   `json:"merged"`
	Base   struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

// Pull fetches a single pull request.
func (c *Client) Pull(ctx context.Context, number int) (*models.Issue, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d", c.owner, c.repo, number)

	var p pull
	if err := c.get(ctx, endpoint, &p); err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return &models.Issue{
		Number:      p.Number,
		PullRequest: true,
		Merged:      p.Merged,
		BaseBranch:  p.Base.Ref,
	}, nil
}

// PullMerged reports whether a pull request was merged, or closed and
// discarded. Only a definitive 4xx answer counts as "not merged"; transient
// failures propagate instead of being folded into a wrong answer.
func (c *Client) PullMerged(ctx context.Context, number int) (bool, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d/merge", c.owner, c.repo, number)

	err := c.get(ctx, endpoint, nil)
	if err == nil {
		return true, nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return false, nil
	}
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= http.StatusBadRequest && httpErr.StatusCode < http.StatusInternalServerError {
		return false, nil
	}
	return false, err
}
