package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/loghub-dev/loghub/internal/github"
)

type labelsOptions struct {
	action   string
	filename string

	username string
	password string
	token    string
}

// labelEntry is one row of the label sync file. OldName is only needed for
// renames; a bare name/color pair updates or creates that label.
type labelEntry struct {
	OldName string `yaml:"old_name,omitempty"`
	Name    string `yaml:"name"`
	Color   string `yaml:"color"`
}

func newLabelsCmd() *cobra.Command {
	opts := &labelsOptions{}

	cmd := &cobra.Command{
		Use:   "labels <owner/repo>",
		Short: "Fetch repository labels to a file, or sync label changes from one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabels(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.action, "action", "a", "get", "either 'get' (write labels to the file) or 'update' (apply the file)")
	flags.StringVar(&opts.filename, "filename", "labels.yml", "label file to read or write")
	addCredentialFlags(flags, &opts.username, &opts.password, &opts.token)

	return cmd
}

func addCredentialFlags(flags *pflag.FlagSet, username, password, token *string) {
	flags.StringVarP(username, "username", "u", "", "GitHub user name")
	flags.StringVarP(password, "password", "p", "", "GitHub user password")
	flags.StringVarP(token, "token", "t", "", "GitHub access token")
}

func runLabels(cmd *cobra.Command, args []string, opts *labelsOptions) error {
	if len(args) != 1 {
		return &UsageError{Message: "a repository is required, in the form owner/repo"}
	}
	owner, name, err := github.ParseRepo(args[0])
	if err != nil {
		return &UsageError{Message: err.Error()}
	}
	if opts.action != "get" && opts.action != "update" {
		return &UsageError{Message: fmt.Sprintf("unknown action %q, expected 'get' or 'update'", opts.action)}
	}

	creds, err := resolveCredentials(opts.username, opts.password, opts.token)
	if err != nil {
		return err
	}

	client, err := github.NewClient(cmd.Context(), owner, name, creds)
	if err != nil {
		return err
	}

	if opts.action == "get" {
		return fetchLabels(cmd, client, opts.filename)
	}
	return updateLabels(cmd, client, opts.filename)
}

func fetchLabels(cmd *cobra.Command, client *github.Client, filename string) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Getting labels from %s\n\n", client.FullRepo())

	labels, err := client.Labels(cmd.Context())
	if err != nil {
		return err
	}

	entries := make([]labelEntry, len(labels))
	for i, label := range labels {
		entries[i] = labelEntry{Name: label.Name, Color: label.Color}
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

func updateLabels(cmd *cobra.Command, client *github.Client, filename string) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Updating labels on %s\n\n", client.FullRepo())

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var entries []labelEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	changes := make([]github.LabelChange, len(entries))
	for i, entry := range entries {
		oldName := entry.OldName
		if oldName == "" {
			oldName = entry.Name
		}
		changes[i] = github.LabelChange{OldName: oldName, NewName: entry.Name, Color: entry.Color}
	}

	report := func(format string, args ...any) {
		fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	}
	return client.ApplyLabels(cmd.Context(), changes, report)
}
