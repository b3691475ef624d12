package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/loghub-dev/loghub/internal/cli"
	"github.com/loghub-dev/loghub/internal/github"
)

// Exit codes. Every fatal path is nonzero; usage problems get their own
// code so scripts can tell a typo from an API failure.
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := cli.NewRootCmd()
	err := cmd.Execute()
	if err == nil {
		return exitSuccess
	}

	errLabel := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %v\n", errLabel("loghub:"), err)

	var usageErr *cli.UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(os.Stderr, "See 'loghub --help' for the available flags.")
		return exitUsage
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && !rateErr.Authenticated {
		fmt.Fprintln(os.Stderr, "Anonymous calls have a small budget; pass --token or --username to raise it.")
	}
	return exitFailure
}
