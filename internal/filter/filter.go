// Package filter narrows and partitions issue/PR lists. Every function is a
// pure map/filter over its input: records are never mutated or reordered,
// only membership in the returned slices changes.
package filter

import (
	"fmt"
	"regexp"
	"time"

	"github.com/loghub-dev/loghub/pkg/models"
)

// ByMilestone keeps records whose milestone title equals the requested one.
// An empty title keeps everything.
func ByMilestone(issues []*models.Issue, title string) []*models.Issue {
	if title == "" {
		return issues
	}
	var kept []*models.Issue
	for _, issue := range issues {
		if issue.Milestone == title {
			kept = append(kept, issue)
		}
	}
	return kept
}

// Since keeps records closed at or after the bound. A nil bound keeps
// everything; records without a close date are dropped when a bound is set.
func Since(issues []*models.Issue, bound *time.Time) []*models.Issue {
	if bound == nil {
		return issues
	}
	var kept []*models.Issue
	for _, issue := range issues {
		if issue.ClosedAt != nil && !issue.ClosedAt.Before(*bound) {
			kept = append(kept, issue)
		}
	}
	return kept
}

// Until keeps records closed at or before the bound. A nil bound keeps
// everything; records without a close date are dropped when a bound is set.
func Until(issues []*models.Issue, bound *time.Time) []*models.Issue {
	if bound == nil {
		return issues
	}
	var kept []*models.Issue
	for _, issue := range issues {
		if issue.ClosedAt != nil && !issue.ClosedAt.After(*bound) {
			kept = append(kept, issue)
		}
	}
	return kept
}

// MergedOnBranch drops pull requests that were closed without merging and,
// when branch is non-empty, pull requests merged into another base branch.
// Plain issues always pass: the branch filter applies to PRs only.
func MergedOnBranch(issues []*models.Issue, branch string) []*models.Issue {
	var kept []*models.Issue
	for _, issue := range issues {
		if issue.PullRequest {
			if !issue.Merged {
				continue
			}
			if branch != "" && issue.BaseBranch != branch {
				continue
			}
		}
		kept = append(kept, issue)
	}
	return kept
}

// Issues selects the plain issues, keeping only those with at least one
// label matching labelRegex when one is supplied.
func Issues(records []*models.Issue, labelRegex string) ([]*models.Issue, error) {
	return byKind(records, false, labelRegex)
}

// PullRequests selects the pull requests, keeping only those with at least
// one label matching labelRegex when one is supplied.
func PullRequests(records []*models.Issue, labelRegex string) ([]*models.Issue, error) {
	return byKind(records, true, labelRegex)
}

func byKind(records []*models.Issue, wantPull bool, labelRegex string) ([]*models.Issue, error) {
	var pattern *regexp.Regexp
	if labelRegex != "" {
		var err error
		pattern, err = regexp.Compile(labelRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid label regex %q: %w", labelRegex, err)
		}
	}

	var kept []*models.Issue
	for _, record := range records {
		if record.PullRequest != wantPull {
			continue
		}
		if pattern != nil && !pattern.MatchString(record.JoinedLabels()) {
			continue
		}
		kept = append(kept, record)
	}
	return kept, nil
}

// ByLabelGroups partitions records by the declared label groups. It returns
// the flattened list of records matching any group (input order, without
// duplicates) and the per-group members in declared group order. Groups with
// no members are dropped, never rendered as an empty heading. With no
// declared groups the input passes through ungrouped.
func ByLabelGroups(records []*models.Issue, groups []models.LabelGroup) ([]*models.Issue, []models.GroupedIssues) {
	if len(groups) == 0 {
		return records, nil
	}

	members := make(map[string][]*models.Issue, len(groups))
	var flattened []*models.Issue
	for _, record := range records {
		matched := false
		for _, group := range groups {
			if record.HasLabel(group.Label) {
				members[group.Name] = append(members[group.Name], record)
				matched = true
			}
		}
		if matched {
			flattened = append(flattened, record)
		}
	}

	var grouped []models.GroupedIssues
	for _, group := range groups {
		if issues := members[group.Name]; len(issues) > 0 {
			grouped = append(grouped, models.GroupedIssues{Name: group.Name, Issues: issues})
		}
	}
	return flattened, grouped
}

// JoinLabelGroups combines issue and PR groups into one ordered list.
// Group names shared by both declarations (as a common leading run) come
// first with the PR members appended to the issue members, then the
// remaining issue groups, then the remaining PR groups. This keeps the
// combined sections in the order the user declared them even when some
// groups are empty on one side.
func JoinLabelGroups(groupedIssues, groupedPRs []models.GroupedIssues, issueDecls, prDecls []models.LabelGroup) []models.GroupedIssues {
	issuesByName := make(map[string][]*models.Issue, len(groupedIssues))
	for _, group := range groupedIssues {
		issuesByName[group.Name] = group.Issues
	}
	prsByName := make(map[string][]*models.Issue, len(groupedPRs))
	for _, group := range groupedPRs {
		prsByName[group.Name] = group.Issues
	}

	shared := make(map[string]bool)
	byName := make(map[string]int)
	var joined []models.GroupedIssues

	appendGroup := func(name string, members []*models.Issue) {
		if idx, ok := byName[name]; ok {
			joined[idx].Issues = append(joined[idx].Issues, members...)
			return
		}
		byName[name] = len(joined)
		copied := models.GroupedIssues{Name: name}
		copied.Issues = append(copied.Issues, members...)
		joined = append(joined, copied)
	}

	// The shared run is walked over the declarations, not the populated
	// issue groups, so a declared name keeps its position even when only
	// PRs matched it. Names with no members at all are skipped.
	for i, decl := range issueDecls {
		if i >= len(prDecls) || decl.Name != prDecls[i].Name {
			break
		}
		shared[decl.Name] = true
		if len(issuesByName[decl.Name])+len(prsByName[decl.Name]) > 0 {
			appendGroup(decl.Name, issuesByName[decl.Name])
		}
	}
	for _, group := range groupedIssues {
		if !shared[group.Name] {
			appendGroup(group.Name, group.Issues)
		}
	}
	for _, group := range groupedPRs {
		appendGroup(group.Name, group.Issues)
	}
	return joined
}
