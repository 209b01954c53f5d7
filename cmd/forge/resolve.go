// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/forge/internal/reactor"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
)

// labelWidth aligns the detail labels of a project.
const labelWidth = 20

func newResolveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [dir]",
		Short: "Prepare every project of a multi-module build",
		Long: `Prepare every project of the build rooted in dir (default ".").

For each project forge resolves the parent chain, the effective artifact and
plugin repositories and the scopes of its build extensions, then prints the
result. Projects are prepared concurrently, up to max_parallel at once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), app, cmd.OutOrStdout(), dirArg(args))
		},
	}
}

func dirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func runResolve(ctx context.Context, app *App, out io.Writer, dir string) error {
	results, _, err := app.prepare(ctx, dir, "")
	if err != nil {
		return err
	}
	for _, res := range results {
		printResult(out, res, app.verbose)
	}
	return app.buildFailure(results)
}

// prepare loads configuration and reactor and prepares every project. It
// also returns the id of the reactor's root project.
func (a *App) prepare(ctx context.Context, dir string, policy repository.MergePolicy) (reactor.Results, string, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, "", err
	}
	s, err := a.openSession(cfg, dir, policy)
	if err != nil {
		return nil, "", a.explain(err)
	}
	results, err := s.build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", err
		}
		return nil, "", a.explain(err)
	}
	return results, s.reactor.Root().ID(), nil
}

// buildFailure explains the first failed project and returns an ExitError
// joining every failure, or nil when all projects were prepared.
func (a *App) buildFailure(results reactor.Results) error {
	err := results.Err()
	if err == nil {
		return nil
	}
	for _, res := range results {
		if res.Err != nil {
			a.explain(res.Err)
			break
		}
	}
	return &ExitError{Code: ExitBuildFailed, Err: err}
}

func printResult(out io.Writer, res reactor.Result, verbose bool) {
	if res.Err != nil {
		fmt.Fprintf(out, "%s %s\n", ErrorStyle.Render("✗"), IDStyle.Render(res.Project.ID()))
		fmt.Fprintln(out, indentStyle.Render(formatErrorForDisplay(res.Err, verbose)))
		return
	}

	p := res.Project
	fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("✓"), TitleStyle.Render(p.ID()))
	printField(out, "parents", modelIDs(p.Lineage))
	printField(out, "repositories", repositoryIDs(p.RemoteRepositories))
	printField(out, "plugin repositories", repositoryIDs(p.PluginRepositories))

	var scopeID string
	var imports, excluded []string
	if p.Realm != nil && p.Realm.Scope != nil {
		scopeID = p.Realm.Scope.ID()
		seen := make(map[string]struct{})
		for _, imp := range p.Realm.Scope.Imports() {
			entry := imp.From.ID()
			if verbose && imp.Package != imp.From.ID() {
				entry += " " + imp.Package
			}
			if _, dup := seen[entry]; !dup {
				seen[entry] = struct{}{}
				imports = append(imports, entry)
			}
		}
		if p.Realm.Filter != nil {
			excluded = p.Realm.Filter.IDs()
		}
	}
	printField(out, "extension scopes", imports)
	if scopeID != "" {
		printField(out, "project scope", []string{scopeID})
	}
	printField(out, "excluded artifacts", excluded)

	participants := make([]string, 0, len(res.Participants))
	for _, reg := range res.Participants {
		participants = append(participants, reg.Implementation)
	}
	printField(out, "participants", participants)
}

func printField(out io.Writer, label string, values []string) {
	value := SubtitleStyle.Render("(none)")
	if len(values) > 0 {
		styled := make([]string, len(values))
		for i, v := range values {
			styled[i] = IDStyle.Render(v)
		}
		value = strings.Join(styled, ", ")
	}
	fmt.Fprintln(out, indentStyle.Render(fmt.Sprintf("%-*s %s", labelWidth, label, value)))
}

func modelIDs(ms []*model.Model) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID())
	}
	return out
}

func repositoryIDs(repos []*repository.Repository) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, string(r.ID))
	}
	return out
}
