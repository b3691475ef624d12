// Package cli wires the loghub commands: changelog generation on the root
// command and label syncing on the labels subcommand.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loghub-dev/loghub/internal/changelog"
	"github.com/loghub-dev/loghub/internal/config"
	"github.com/loghub-dev/loghub/internal/github"
	"github.com/loghub-dev/loghub/pkg/models"
)

// UsageError is a fatal argument problem, reported before any network call.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

type rootOptions struct {
	milestone string
	sinceTag  string
	untilTag  string
	branch    string
	format    string

	issueLabelRegex  string
	prLabelRegex     string
	issueLabelGroups []string
	prLabelGroups    []string

	templateFile string
	batch        string

	noPRs           bool
	noRelatedPRs    bool
	noRelatedIssues bool

	username string
	password string
	token    string
}

var version = "dev"

// NewRootCmd builds the loghub command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "loghub <owner/repo>",
		Short: "Changelog generator based on GitHub milestones or tags",
		Long: `loghub lists the issues closed and pull requests merged in a GitHub
milestone or tag range and renders them as a Markdown changelog, with
optional label filtering and label-group sections.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.milestone, "milestone", "m", "", "GitHub milestone to get issues and pull requests for")
	flags.StringVar(&opts.sinceTag, "since-tag", "", "issues and pull requests since this tag")
	flags.StringVar(&opts.untilTag, "until-tag", "", "issues and pull requests until this tag")
	flags.StringVarP(&opts.branch, "branch", "b", "", "base branch merged pull requests must target")
	flags.StringVarP(&opts.format, "format", "f", "changelog",
		"output format, either 'changelog' (Markdown links) or 'release' (plain text)")
	flags.StringVar(&opts.issueLabelRegex, "issue-label-regex", "", "keep only issues with a label matching this regex")
	flags.StringVar(&opts.prLabelRegex, "pr-label-regex", "", "keep only pull requests with a label matching this regex")
	flags.StringArrayVar(&opts.issueLabelGroups, "issue-label-group", nil,
		"group issues under a heading, as 'label' or 'label,display name' (repeatable)")
	flags.StringArrayVar(&opts.prLabelGroups, "pr-label-group", nil,
		"group pull requests under a heading, as 'label' or 'label,display name' (repeatable)")
	flags.StringVar(&opts.templateFile, "template", "", "custom template file overriding the built-in templates")
	flags.StringVar(&opts.batch, "batch", "", "run for all 'milestones' or all 'tags'")
	flags.BoolVar(&opts.noPRs, "no-prs", false, "leave pull requests out of the output")
	flags.BoolVar(&opts.noRelatedPRs, "no-related-prs", false, "do not list the PRs that closed each issue")
	flags.BoolVar(&opts.noRelatedIssues, "no-related-issues", false, "do not list the issues closed by each PR")
	addCredentialFlags(flags, &opts.username, &opts.password, &opts.token)

	cmd.AddCommand(newLabelsCmd())

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, opts *rootOptions) error {
	if len(args) != 1 {
		return &UsageError{Message: "a repository is required, in the form owner/repo (e.g. spyder-ide/spyder)"}
	}
	repo := args[0]
	owner, name, err := github.ParseRepo(repo)
	if err != nil {
		return &UsageError{Message: err.Error()}
	}

	genOpts, err := buildOptions(opts)
	if err != nil {
		return err
	}

	creds, err := resolveCredentials(opts.username, opts.password, opts.token)
	if err != nil {
		return err
	}

	announce(cmd.ErrOrStderr(), opts)

	client, err := github.NewClient(cmd.Context(), owner, name, creds)
	if err != nil {
		return err
	}

	generator := changelog.NewGenerator(client, nil)
	rendered, err := generator.Generate(cmd.Context(), genOpts)
	if err != nil {
		return err
	}

	return changelog.WriteOutput(cmd.OutOrStdout(), changelog.OutputFile, rendered)
}

// buildOptions validates the flag values and translates them into generator
// options. All usage problems are caught here, before any network call.
func buildOptions(opts *rootOptions) (changelog.Options, error) {
	var zero changelog.Options

	format := changelog.Format(opts.format)
	if !format.Valid() {
		return zero, &UsageError{Message: fmt.Sprintf("unknown format %q, expected 'changelog' or 'release'", opts.format)}
	}

	batch := changelog.BatchMode(opts.batch)
	switch batch {
	case changelog.BatchNone, changelog.BatchMilestones, changelog.BatchTags:
	default:
		return zero, &UsageError{Message: fmt.Sprintf("unknown batch mode %q, expected 'milestones' or 'tags'", opts.batch)}
	}

	if batch == changelog.BatchNone {
		if opts.milestone == "" && opts.sinceTag == "" {
			return zero, &UsageError{Message: "a milestone or a tag range is required; pass --milestone or --since-tag"}
		}
	} else if opts.milestone != "" || opts.sinceTag != "" || opts.untilTag != "" {
		return zero, &UsageError{Message: "batch mode takes no milestone or tag arguments"}
	}

	issueGroups, err := parseLabelGroups(opts.issueLabelGroups)
	if err != nil {
		return zero, err
	}
	prGroups, err := parseLabelGroups(opts.prLabelGroups)
	if err != nil {
		return zero, err
	}

	return changelog.Options{
		Milestone:         opts.milestone,
		SinceTag:          opts.sinceTag,
		UntilTag:          opts.untilTag,
		Branch:            opts.branch,
		Format:            format,
		IssueLabelRegex:   opts.issueLabelRegex,
		PRLabelRegex:      opts.prLabelRegex,
		IssueLabelGroups:  issueGroups,
		PRLabelGroups:     prGroups,
		TemplateFile:      opts.templateFile,
		Batch:             batch,
		ShowPRs:           !opts.noPRs,
		ShowRelatedPRs:    !opts.noRelatedPRs,
		ShowRelatedIssues: !opts.noRelatedIssues,
	}, nil
}

// parseLabelGroups parses repeated group declarations. Each one is a label
// optionally followed by a comma and the heading to print; the label itself
// doubles as the heading when none is given.
func parseLabelGroups(declarations []string) ([]models.LabelGroup, error) {
	var groups []models.LabelGroup
	for _, declaration := range declarations {
		label, name, found := strings.Cut(declaration, ",")
		if label == "" {
			return nil, &UsageError{Message: fmt.Sprintf("empty label in label group %q", declaration)}
		}
		if !found || name == "" {
			name = label
		}
		groups = append(groups, models.LabelGroup{Label: label, Name: name})
	}
	return groups, nil
}

// announce mirrors back what will be queried, so a typo'd milestone or tag
// is visible before the paginated fetches start.
func announce(w io.Writer, opts *rootOptions) {
	switch {
	case opts.batch != "":
		fmt.Fprintf(w, "loghub: querying all %s\n\n", opts.batch)
	case opts.milestone != "":
		fmt.Fprintf(w, "loghub: querying issues for milestone %s\n\n", opts.milestone)
	case opts.untilTag != "":
		fmt.Fprintf(w, "loghub: querying issues since tag %s until tag %s\n\n", opts.sinceTag, opts.untilTag)
	default:
		fmt.Fprintf(w, "loghub: querying issues since tag %s\n\n", opts.sinceTag)
	}
}

// resolveCredentials merges flag credentials with the stored config:
// flags win, then the config token, then the config username/password.
// A username without a password triggers a masked prompt.
func resolveCredentials(username, password, token string) (github.Credentials, error) {
	creds := github.Credentials{Username: username, Password: password, Token: token}

	if creds.Username == "" && creds.Token == "" {
		cfg, err := config.Load()
		if err != nil {
			return creds, err
		}
		stored := cfg.Credentials(config.ServiceGitHub)
		creds.Token = stored.Token
		if creds.Token == "" {
			creds.Username = stored.Username
			creds.Password = stored.Password
		}
	}

	if creds.Username != "" && creds.Password == "" {
		prompted, err := promptPassword(os.Stdin, os.Stderr)
		if err != nil {
			return creds, err
		}
		creds.Password = prompted
	}
	return creds, nil
}
