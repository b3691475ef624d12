package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/loghub-dev/loghub/pkg/models"
)

// LabelChange renames an existing label or creates a new one.
type LabelChange struct {
	OldName string `yaml:"old_name"`
	NewName string `yaml:"name"`
	Color   string `yaml:"color"`
}

// Labels fetches every label of the repository.
func (c *Client) Labels(ctx context.Context) ([]models.Label, error) {
	var all []models.Label

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(issuePageSize))

		endpoint := fmt.Sprintf("repos/%s/%s/labels?%s", c.owner, c.repo, params.Encode())

		var result []models.Label
		if err := c.get(ctx, endpoint, &result); err != nil {
			return nil, fmt.Errorf("failed to list labels: %w", err)
		}
		if len(result) == 0 {
			break
		}
		all = append(all, result...)
	}

	return all, nil
}

// ApplyLabels applies each change in turn: an update-in-place first and, if
// the old label does not exist, a create. One failed label never aborts the
// batch; the per-label outcome is reported through report.
func (c *Client) ApplyLabels(ctx context.Context, changes []LabelChange, report func(format string, args ...any)) error {
	if report == nil {
		report = func(string, ...any) {}
	}

	for _, change := range changes {
		err := c.updateLabel(ctx, change)
		if err == nil {
			report("Updated label: %q -> %q (#%s)", change.OldName, change.NewName, change.Color)
			continue
		}
		if !recoverableLabelError(err) {
			return err
		}

		err = c.createLabel(ctx, change)
		if err == nil {
			report("Created label: %q (#%s)", change.NewName, change.Color)
			continue
		}
		if !recoverableLabelError(err) {
			return err
		}
		report("Label %q already exists, skipped", change.NewName)
	}
	return nil
}

func (c *Client) updateLabel(ctx context.Context, change LabelChange) error {
	endpoint := fmt.Sprintf("repos/%s/%s/labels/%s", c.owner, c.repo, url.PathEscape(change.OldName))

	payload, err := json.Marshal(map[string]string{
		"name":  change.NewName,
		"color": change.Color,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload), nil)
}

func (c *Client) createLabel(ctx context.Context, change LabelChange) error {
	endpoint := fmt.Sprintf("repos/%s/%s/labels", c.owner, c.repo)

	payload, err := json.Marshal(map[string]string{
		"name":  change.NewName,
		"color": change.Color,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), nil)
}

// recoverableLabelError reports whether a label update/create failure is a
// local conflict (missing label, name already taken) rather than something
// fatal like exhausted rate limit or bad credentials.
func recoverableLabelError(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}
