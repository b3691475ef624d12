package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loghub-dev/loghub/pkg/models"
)

// tagRef mirrors one entry of the git tag refs listing.
type tagRef struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA  string `json:"sha"`
		Type string `json:"type"`
	} `json:"object"`
}

// tagObject mirrors an annotated tag object.
type tagObject struct {
	Tag    string `json:"tag"`
	SHA    string `json:"sha"`
	Tagger struct {
		Date time.Time `json:"date"`
	} `json:"tagger"`
}

// Tags returns the names of all tags of the repository, in API order.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	refs, err := c.tagRefs(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = strings.TrimPrefix(ref.Ref, "refs/tags/")
	}
	return names, nil
}

// Tag resolves a tag by name, including the date of its annotated tag
// object. An unknown name is a NotFoundError listing the valid tag names.
func (c *Client) Tag(ctx context.Context, name string) (*models.Tag, error) {
	refs, err := c.tagRefs(ctx)
	if err != nil {
		return nil, err
	}

	sha := ""
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = strings.TrimPrefix(ref.Ref, "refs/tags/")
		if ref.Ref == "refs/tags/"+name {
			sha = ref.Object.SHA
		}
	}
	if sha == "" {
		return nil, &NotFoundError{Resource: "tag", Name: name, Valid: names}
	}

	endpoint := fmt.Sprintf("repos/%s/%s/git/tags/%s", c.owner, c.repo, sha)

	var obj tagObject
	if err := c.get(ctx, endpoint, &obj); err != nil {
		return nil, fmt.Errorf("failed to get tag %s: %w", name, err)
	}
	return &models.Tag{Name: name, SHA: sha, TaggedAt: obj.Tagger.Date}, nil
}

func (c *Client) tagRefs(ctx context.Context) ([]tagRef, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/git/refs/tags", c.owner, c.repo)

	var refs []tagRef
	if err := c.get(ctx, endpoint, &refs); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return refs, nil
}
