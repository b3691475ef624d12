package changelog

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/loghub-dev/loghub/pkg/models"
)

//go:embed templates/*.tmpl
var builtinTemplates embed.FS

// Format selects the tone of the rendered document.
type Format string

const (
	// FormatChangelog renders Markdown hyperlinks, for a CHANGELOG.md file.
	FormatChangelog Format = "changelog"
	// FormatRelease renders plain references, for a GitHub Releases page.
	FormatRelease Format = "release"
)

// Valid reports whether the format is one of the two known values.
func (f Format) Valid() bool {
	return f == FormatChangelog || f == FormatRelease
}

// TemplateSet holds the resolved template locations the assembler renders
// with. The default set is embedded in the binary; tests and callers can
// inject an alternate filesystem.
type TemplateSet struct {
	fsys fs.FS
	dir  string
}

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() *TemplateSet {
	return &TemplateSet{fsys: builtinTemplates, dir: "templates"}
}

// NewTemplateSet builds a template set over an arbitrary filesystem, with
// template files laid out like the built-in ones under dir.
func NewTemplateSet(fsys fs.FS, dir string) *TemplateSet {
	return &TemplateSet{fsys: fsys, dir: dir}
}

// Select names the built-in template for the active grouping modes and
// output format. Grouping is decided by what the user declared, not by
// whether any group ended up with members.
func (s *TemplateSet) Select(format Format, issueGroups, prGroups bool) string {
	name := "changelog"
	if format == FormatRelease {
		name = "release"
	}
	switch {
	case issueGroups && prGroups:
		name += "_groups"
	case issueGroups:
		name += "_issue_groups"
	case prGroups:
		name += "_pr_groups"
	}
	return name + ".tmpl"
}

// Load parses one named template from the set.
func (s *TemplateSet) Load(name string) (*template.Template, error) {
	data, err := fs.ReadFile(s.fsys, s.dir+"/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// LoadFile parses a user-supplied template file, which always wins over the
// built-in selection.
func LoadFile(path string) (*template.Template, error) {
	tmpl, err := template.New(pathBase(path)).Funcs(templateFuncs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	return tmpl, nil
}

func pathBase(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// templateFuncs are the helpers available inside every template.
var templateFuncs = template.FuncMap{
	// plural returns the count suffix: "issue" vs "issues".
	"plural": func(n int) string {
		if n == 1 {
			return ""
		}
		return "s"
	},
	// tense matches the verb to the count: "was closed" vs "were closed".
	"tense": func(n int) string {
		if n == 1 {
			return "was"
		}
		return "were"
	},
	// related renders a cross-reference suffix with Markdown links,
	// e.g. ` ([PR 45](https://...), [PR 44](https://...))`.
	"related": func(refs []models.Related, word string) string {
		if len(refs) == 0 {
			return ""
		}
		parts := make([]string, len(refs))
		for i, ref := range refs {
			parts[i] = fmt.Sprintf("[%s %s](%s)", word, ref.Text, ref.URL)
		}
		return " (" + strings.Join(parts, ", ") + ")"
	},
	// relatedText renders the plain-text variant, e.g. ` (PR #45, PR #44)`.
	"relatedText": func(refs []models.Related, word string) string {
		if len(refs) == 0 {
			return ""
		}
		parts := make([]string, len(refs))
		for i, ref := range refs {
			parts[i] = fmt.Sprintf("%s #%s", word, ref.Text)
		}
		return " (" + strings.Join(parts, ", ") + ")"
	},
}
