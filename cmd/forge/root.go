// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/forge/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the forge command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "forge",
		Short: "Prepare multi-module builds with isolated build extensions",
		Long: TitleStyle.Render("forge") + SubtitleStyle.Render(" - prepare multi-module builds with isolated build extensions") + `

forge reads the forge.cue descriptor of a project and its modules, resolves
parent descriptors and build extensions from the declared repositories and
composes the scope every project is built in.

` + SubtitleStyle.Render("Examples:") + `
  forge resolve                   Prepare the build rooted in the current directory
  forge repos --merge request_dominant
                                  Show the repositories of the root project
  forge config show --format toml Show the effective configuration`,
		SilenceUsage: true,
	}

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/forge/config.cue)")

	root.AddCommand(newResolveCommand(app))
	root.AddCommand(newReposCommand(app))
	root.AddCommand(newConfigCommand(app))
	return root
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display, using the
// suggestions of an ActionableError when there is one.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
