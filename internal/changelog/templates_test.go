package changelog

import (
	"testing"

	"github.com/loghub-dev/loghub/pkg/models"
)

func TestFormatValid(t *testing.T) {
	if !FormatChangelog.Valid() || !FormatRelease.Valid() {
		t.Error("known formats reported invalid")
	}
	if Format("html").Valid() {
		t.Error("unknown format reported valid")
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		format      Format
		issueGroups bool
		prGroups    bool
		want        string
	}{
		{FormatChangelog, false, false, "changelog.tmpl"},
		{FormatChangelog, true, false, "changelog_issue_groups.tmpl"},
		{FormatChangelog, false, true, "changelog_pr_groups.tmpl"},
		{FormatChangelog, true, true, "changelog_groups.tmpl"},
		{FormatRelease, false, false, "release.tmpl"},
		{FormatRelease, true, false, "release_issue_groups.tmpl"},
		{FormatRelease, false, true, "release_pr_groups.tmpl"},
		{FormatRelease, true, true, "release_groups.tmpl"},
	}

	s := DefaultTemplates()
	for _, tt := range tests {
		if got := s.Select(tt.format, tt.issueGroups, tt.prGroups); got != tt.want {
			t.Errorf("Select(%s, %v, %v) = %s, want %s",
				tt.format, tt.issueGroups, tt.prGroups, got, tt.want)
		}
	}
}

func TestBuiltinTemplatesParse(t *testing.T) {
	s := DefaultTemplates()
	for _, format := range []Format{FormatChangelog, FormatRelease} {
		for _, issueGroups := range []bool{false, true} {
			for _, prGroups := range []bool{false, true} {
				name := s.Select(format, issueGroups, prGroups)
				if _, err := s.Load(name); err != nil {
					t.Errorf("Load(%s) failed: %v", name, err)
				}
			}
		}
	}
}

func TestRelatedFuncs(t *testing.T) {
	refs := []models.Related{
		{URL: "https://github.com/org/repo/pull/45", Text: "45"},
		{URL: "https://github.com/org/repo/pull/44", Text: "44"},
	}

	related := templateFuncs["related"].(func([]models.Related, string) string)
	want := " ([PR 45](https://github.com/org/repo/pull/45), [PR 44](https://github.com/org/repo/pull/44))"
	if got := related(refs, "PR"); got != want {
		t.Errorf("related = %q, want %q", got, want)
	}
	if got := related(nil, "PR"); got != "" {
		t.Errorf("related(nil) = %q, want empty", got)
	}

	relatedText := templateFuncs["relatedText"].(func([]models.Related, string) string)
	if got := relatedText(refs, "PR"); got != " (PR #45, PR #44)" {
		t.Errorf("relatedText = %q", got)
	}
}

func TestCountFuncs(t *testing.T) {
	plural := templateFuncs["plural"].(func(int) string)
	tense := templateFuncs["tense"].(func(int) string)

	if plural(1) != "" || plural(2) != "s" || plural(0) != "s" {
		t.Error("plural suffix wrong")
	}
	if tense(1) != "was" || tense(2) != "were" || tense(0) != "were" {
		t.Error("verb tense wrong")
	}
}
