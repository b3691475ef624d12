// Package changelog assembles filtered issue/PR listings into a rendered
// changelog document, one section per milestone or tag pair.
package changelog

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/loghub-dev/loghub/internal/filter"
	"github.com/loghub-dev/loghub/internal/github"
	"github.com/loghub-dev/loghub/pkg/models"
)

// BatchMode renders one changelog section per milestone or per consecutive
// tag pair instead of a single one.
type BatchMode string

const (
	BatchNone       BatchMode = ""
	BatchMilestones BatchMode = "milestones"
	BatchTags       BatchMode = "tags"
)

// placeholderVersion is rendered when no version can be derived.
const placeholderVersion = "<RELEASE_VERSION>"

// versionTagPrefix is stripped from milestone titles to form the version.
const versionTagPrefix = "v"

// RepoService is the slice of the repository client the generator needs.
// *github.Client implements it; tests substitute a fixture-backed fake.
type RepoService interface {
	FullRepo() string
	Issues(ctx context.Context, f github.IssueFilter) ([]*models.Issue, error)
	AnnotatePulls(ctx context.Context, issues []*models.Issue, withBase bool) error
	Milestones(ctx context.Context) ([]models.Milestone, error)
	Milestone(ctx context.Context, title string) (*models.Milestone, error)
	Tags(ctx context.Context) ([]string, error)
	Tag(ctx context.Context, name string) (*models.Tag, error)
}

// Options configures one changelog generation pass.
type Options struct {
	Milestone string
	SinceTag  string
	UntilTag  string
	Branch    string

	Format           Format
	IssueLabelRegex  string
	PRLabelRegex     string
	IssueLabelGroups []models.LabelGroup
	PRLabelGroups    []models.LabelGroup

	// TemplateFile overrides the built-in template selection.
	TemplateFile string

	Batch BatchMode

	ShowPRs           bool
	ShowRelatedPRs    bool
	ShowRelatedIssues bool
}

// Generator renders changelogs for one repository.
type Generator struct {
	repo      RepoService
	templates *TemplateSet

	// now is stubbed in tests; the current date is the close-date fallback.
	now func() time.Time
}

// NewGenerator creates a generator over the given repository. A nil
// template set falls back to the built-in templates.
func NewGenerator(repo RepoService, templates *TemplateSet) *Generator {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Generator{repo: repo, templates: templates, now: time.Now}
}

// item is one changelog section to render: a milestone, or a tag range.
type item struct {
	milestone string
	sinceTag  string
	untilTag  string
}

// Generate produces the full changelog document. In batch mode the base
// issue list is fetched once and re-filtered per item; items render oldest
// first by reversing the naturally newest-first listings.
func (g *Generator) Generate(ctx context.Context, opts Options) (string, error) {
	items, baseIssues, err := g.resolveItems(ctx, opts)
	if err != nil {
		return "", err
	}

	var sections []string
	for i := len(items) - 1; i >= 0; i-- {
		section, err := g.generateItem(ctx, opts, items[i], baseIssues)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}
	return strings.Join(sections, "\n"), nil
}

func (g *Generator) resolveItems(ctx context.Context, opts Options) ([]item, []*models.Issue, error) {
	switch opts.Batch {
	case BatchNone:
		if opts.Milestone != "" {
			return []item{{milestone: opts.Milestone}}, nil, nil
		}
		return []item{{sinceTag: opts.SinceTag, untilTag: opts.UntilTag}}, nil, nil

	case BatchMilestones:
		base, err := g.fetchBase(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		milestones, err := g.repo.Milestones(ctx)
		if err != nil {
			return nil, nil, err
		}
		items := make([]item, len(milestones))
		for i, m := range milestones {
			items[i] = item{milestone: m.Title}
		}
		return items, base, nil

	case BatchTags:
		base, err := g.fetchBase(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		tags, err := g.repo.Tags(ctx)
		if err != nil {
			return nil, nil, err
		}
		// n tags span n+1 ranges, including the open-ended first and last.
		items := make([]item, len(tags)+1)
		for i := range items {
			if i > 0 {
				items[i].sinceTag = tags[i-1]
			}
			if i < len(tags) {
				items[i].untilTag = tags[i]
			}
		}
		return items, base, nil
	}
	return nil, nil, fmt.Errorf("unknown batch mode %q", opts.Batch)
}

// fetchBase fetches every closed issue once for the whole batch, with pull
// requests already annotated. This can eat up the API rate budget on large
// repositories, which is why the rate guard runs before each page.
func (g *Generator) fetchBase(ctx context.Context, opts Options) ([]*models.Issue, error) {
	base, err := g.repo.Issues(ctx, github.IssueFilter{State: "closed"})
	if err != nil {
		return nil, err
	}
	if err := g.repo.AnnotatePulls(ctx, base, opts.Branch != ""); err != nil {
		return nil, err
	}
	return base, nil
}

func (g *Generator) generateItem(ctx context.Context, opts Options, it item, base []*models.Issue) (string, error) {
	version := it.untilTag
	var closedAt *time.Time
	var since, until *time.Time
	milestoneNumber := 0

	switch {
	case it.milestone != "" && it.sinceTag == "":
		milestone, err := g.repo.Milestone(ctx, it.milestone)
		if err != nil {
			return "", err
		}
		milestoneNumber = milestone.Number
		closedAt = milestone.ClosedAt
		version = strings.TrimPrefix(it.milestone, versionTagPrefix)

	case it.milestone == "" && it.sinceTag != "":
		sinceTag, err := g.repo.Tag(ctx, it.sinceTag)
		if err != nil {
			return "", err
		}
		since = &sinceTag.TaggedAt
		if it.untilTag != "" {
			untilTag, err := g.repo.Tag(ctx, it.untilTag)
			if err != nil {
				return "", err
			}
			until = &untilTag.TaggedAt
			closedAt = until
		}
	}

	issues := base
	if issues == nil {
		fetchFilter := github.IssueFilter{State: "closed", MilestoneNumber: milestoneNumber}
		if since != nil {
			fetchFilter.Since = *since
		}
		fetched, err := g.repo.Issues(ctx, fetchFilter)
		if err != nil {
			return "", err
		}
		// Narrow by date before the per-PR merge lookups.
		fetched = filter.Since(fetched, since)
		fetched = filter.Until(fetched, until)
		if err := g.repo.AnnotatePulls(ctx, fetched, opts.Branch != ""); err != nil {
			return "", err
		}
		issues = fetched
	} else {
		issues = filter.ByMilestone(issues, it.milestone)
		issues = filter.Since(issues, since)
		issues = filter.Until(issues, until)
	}

	issues = filter.MergedOnBranch(issues, opts.Branch)

	prs, err := filter.PullRequests(issues, opts.PRLabelRegex)
	if err != nil {
		return "", err
	}
	plainIssues, err := filter.Issues(issues, opts.IssueLabelRegex)
	if err != nil {
		return "", err
	}

	flatIssues, groupedIssues := filter.ByLabelGroups(plainIssues, opts.IssueLabelGroups)
	flatPRs, groupedPRs := filter.ByLabelGroups(prs, opts.PRLabelGroups)
	labelGroups := filter.JoinLabelGroups(groupedIssues, groupedPRs, opts.IssueLabelGroups, opts.PRLabelGroups)

	filter.ResolveRelated(flatIssues, flatPRs, opts.ShowRelatedPRs, opts.ShowRelatedIssues)

	return g.render(opts, renderContext{
		Issues:           flatIssues,
		PullRequests:     flatPRs,
		Version:          version,
		CloseDate:        g.closeDate(closedAt),
		LabelGroups:      labelGroups,
		IssueLabelGroups: groupedIssues,
		PRLabelGroups:    groupedPRs,
		ShowPRs:          opts.ShowPRs,
	})
}

// renderContext is the data every template renders from.
type renderContext struct {
	Issues           []*models.Issue
	PullRequests     []*models.Issue
	Version          string
	CloseDate        string
	RepoFullName     string
	RepoOwner        string
	RepoName         string
	LabelGroups      []models.GroupedIssues
	IssueLabelGroups []models.GroupedIssues
	PRLabelGroups    []models.GroupedIssues
	ShowPRs          bool
}

func (g *Generator) render(opts Options, rc renderContext) (string, error) {
	if rc.Version == "" {
		rc.Version = placeholderVersion
	}
	rc.RepoFullName = g.repo.FullRepo()
	if owner, name, err := github.ParseRepo(rc.RepoFullName); err == nil {
		rc.RepoOwner = owner
		rc.RepoName = name
	}

	tmpl, err := g.lookupTemplate(opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, rc); err != nil {
		return "", fmt.Errorf("failed to render changelog: %w", err)
	}
	return b.String(), nil
}

func (g *Generator) lookupTemplate(opts Options) (*template.Template, error) {
	if opts.TemplateFile != "" {
		return LoadFile(opts.TemplateFile)
	}
	name := g.templates.Select(opts.Format, len(opts.IssueLabelGroups) > 0, len(opts.PRLabelGroups) > 0)
	return g.templates.Load(name)
}

// closeDate formats the section date: the close timestamp's date when one
// exists, the current date otherwise.
func (g *Generator) closeDate(closedAt *time.Time) string {
	if closedAt != nil {
		return closedAt.UTC().Format("2006-01-02")
	}
	return g.now().Format("2006/01/02")
}
