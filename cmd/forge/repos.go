// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/forge/internal/reactor"
	"github.com/invowk/forge/pkg/repository"
)

func newReposCommand(app *App) *cobra.Command {
	var merge string
	var plugins bool

	cmd := &cobra.Command{
		Use:   "repos [dir]",
		Short: "Show the effective repositories of the root project",
		Long: `Show the effective repositories of the project in dir (default ".").

The repositories declared by the descriptor and its parents are merged with
the repositories of the configuration. With pom_dominant the descriptor wins
id conflicts and is searched first; with request_dominant the configuration does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var policy repository.MergePolicy
			if merge != "" {
				var err error
				if policy, err = repository.ParseMergePolicy(merge); err != nil {
					return err
				}
			}
			return runRepos(cmd.Context(), app, cmd.OutOrStdout(), dirArg(args), policy, plugins)
		},
	}
	cmd.Flags().StringVar(&merge, "merge", "", "merge policy: pom_dominant or request_dominant (default from config)")
	cmd.Flags().BoolVar(&plugins, "plugins", false, "show plugin repositories instead of artifact repositories")
	return cmd
}

func runRepos(ctx context.Context, app *App, out io.Writer, dir string, policy repository.MergePolicy, plugins bool) error {
	results, rootID, err := app.prepare(ctx, dir, policy)
	if err != nil {
		return err
	}
	var root reactor.Result
	for _, res := range results {
		if res.Project.ID() == rootID {
			root = res
		}
	}
	if root.Err != nil {
		app.explain(root.Err)
		return &ExitError{Code: ExitBuildFailed, Err: fmt.Errorf("%s: %w", root.Project.ID(), root.Err)}
	}

	repos := root.Project.RemoteRepositories
	if plugins {
		repos = root.Project.PluginRepositories
	}
	fmt.Fprintln(out, TitleStyle.Render(root.Project.ID()))
	if len(repos) == 0 {
		fmt.Fprintln(out, indentStyle.Render(SubtitleStyle.Render("(none)")))
	}
	for _, r := range repos {
		printRepository(out, r, app.verbose)
	}
	return nil
}

func printRepository(out io.Writer, r *repository.Repository, verbose bool) {
	line := fmt.Sprintf("%s %s", IDStyle.Render(string(r.ID)), r.URL)
	if r.Layout != repository.LayoutDefault {
		line += SubtitleStyle.Render(" [" + r.Layout.String() + "]")
	}
	if len(r.Mirrored) > 0 {
		ids := make([]string, 0, len(r.Mirrored))
		for _, m := range r.Mirrored {
			ids = append(ids, string(m.ID))
		}
		line += SubtitleStyle.Render(" mirror of " + strings.Join(ids, ", "))
	}
	fmt.Fprintln(out, indentStyle.Render(line))

	if !verbose {
		return
	}
	var details []string
	if !r.Releases.Enabled {
		details = append(details, "releases disabled")
	}
	if !r.Snapshots.Enabled {
		details = append(details, "snapshots disabled")
	}
	if r.Proxy != nil {
		details = append(details, fmt.Sprintf("proxy %s:%d", r.Proxy.Host, r.Proxy.Port))
	}
	if r.Authentication != nil {
		details = append(details, "authenticated as "+r.Authentication.Username)
	}
	if len(details) > 0 {
		fmt.Fprintln(out, indentStyle.Render(indentStyle.Render(SubtitleStyle.Render(strings.Join(details, "; ")))))
	}
}
