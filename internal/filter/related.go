package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/loghub-dev/loghub/pkg/models"
)

// closingPattern recognizes "<verb> <reference>" pairs in PR bodies, where
// the reference is "#N", "owner/repo#N" or "owner/repo/N".
var closingPattern = regexp.MustCompile(
	`(?i)(close|closes|fix|fixes|fixed|resolve|resolves|resolved) ` +
		`((?P<repo>.*?)#(?P<number>\d+)|(?P<fullrepo>.*)/(?P<number2>\d+))`)

// reference is one parsed closing reference: the repository part (possibly
// empty, meaning same repository) and the issue number.
type reference struct {
	repo   string
	number string
}

func findReferences(body string) []reference {
	repoIdx := closingPattern.SubexpIndex("repo")
	numberIdx := closingPattern.SubexpIndex("number")
	fullRepoIdx := closingPattern.SubexpIndex("fullrepo")
	number2Idx := closingPattern.SubexpIndex("number2")

	var refs []reference
	for _, m := range closingPattern.FindAllStringSubmatch(body, -1) {
		number := m[numberIdx]
		if number == "" {
			number = m[number2Idx]
		}
		repo := m[fullRepoIdx]
		if repo == "" {
			repo = m[repoIdx]
		}
		refs = append(refs, reference{repo: repo, number: number})
	}
	return refs
}

// ResolveRelated scans the pull request bodies for closing references and
// attaches the detected relations in both directions: each PR gains the
// issues it closes, each referenced issue present in the set gains the PRs
// closing it. Every relation list ends up sorted by referenced URL,
// descending, so the rendered output is deterministic. Either side can be
// switched off independently; a disabled side keeps an empty list rather
// than a missing one.
func ResolveRelated(issues, prs []*models.Issue, showRelatedPRs, showRelatedIssues bool) {
	prsByIssueURL := make(map[string][]models.Related)

	for _, pr := range prs {
		if !pr.PullRequest {
			continue
		}
		prRef := models.Related{URL: pr.HTMLURL, Text: strconv.Itoa(pr.Number)}
		// Same-repo references resolve against the PR's own issues path.
		defaultRepo := strings.SplitN(pr.HTMLURL, "/pull/", 2)[0] + "/issues/"

		var related []models.Related
		for _, ref := range findReferences(stripComments(pr.Body)) {
			issueURL := buildIssueURL(ref, defaultRepo)
			if issueURL == "" {
				continue
			}
			prsByIssueURL[issueURL] = append(prsByIssueURL[issueURL], prRef)
			related = append(related, models.Related{URL: issueURL, Text: ref.number})
		}

		if showRelatedIssues {
			pr.RelatedIssues = sortedByURLDesc(related)
		} else {
			pr.RelatedIssues = []models.Related{}
		}
	}

	for _, issue := range issues {
		if showRelatedPRs {
			issue.RelatedPulls = sortedByURLDesc(prsByIssueURL[issue.HTMLURL])
		} else {
			issue.RelatedPulls = []models.Related{}
		}
	}
}

// stripComments removes blank lines and markdown comment lines, so closing
// references inside PR template comments are not picked up.
func stripComments(body string) string {
	if body == "" {
		return ""
	}
	var kept []string
	for _, line := range strings.Split(body, "\n") {
		if line == "" || strings.HasPrefix(line, "<!---") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// buildIssueURL turns one parsed reference into the public issue URL, or ""
// when the repository part cannot be a repository (it contains spaces).
func buildIssueURL(ref reference, defaultRepo string) string {
	repo := ref.repo
	if repo == "" {
		repo = defaultRepo
	}
	if strings.Contains(repo, " ") {
		return ""
	}
	// "owner/repo#45" shorthand becomes a full URL first.
	if !strings.Contains(repo, "http") {
		repo = "https://github.com/" + repo
	}
	switch {
	case !strings.Contains(repo, "/issues"):
		return repo + "/issues/" + ref.number
	case strings.HasSuffix(repo, "/"):
		return repo + ref.number
	default:
		return repo + "/" + ref.number
	}
}

func sortedByURLDesc(related []models.Related) []models.Related {
	if related == nil {
		return []models.Related{}
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].URL > related[j].URL
	})
	return related
}
