package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/loghub-dev/loghub/pkg/models"
)

// Milestones fetches every milestone of the repository, any state.
func (c *Client) Milestones(ctx context.Context) ([]models.Milestone, error) {
	var all []models.Milestone

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("state", "all")
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(issuePageSize))

		endpoint := fmt.Sprintf("repos/%s/%s/milestones?%s", c.owner, c.repo, params.Encode())

		var result []models.Milestone
		if err := c.get(ctx, endpoint, &result); err != nil {
			return nil, fmt.Errorf("failed to list milestones: %w", err)
		}
		if len(result) == 0 {
			break
		}
		all = append(all, result...)
	}

	return all, nil
}

// Milestone resolves a milestone by title. An unknown title is a
// NotFoundError that lists the valid milestone titles.
func (c *Client) Milestone(ctx context.Context, title string) (*models.Milestone, error) {
	milestones, err := c.Milestones(ctx)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(milestones))
	for i, m := range milestones {
		titles[i] = m.Title
		if m.Title == title {
			milestone := m
			return &milestone, nil
		}
	}
	return nil, &NotFoundError{Resource: "milestone", Name: title, Valid: titles}
}
