// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/invowk/forge/internal/config"
)

const (
	formatCUE  = "cue"
	formatTOML = "toml"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect forge configuration",
		Long: `Inspect forge configuration.

Configuration is read from:
  - Linux: ~/.config/forge/config.cue
  - macOS: ~/Library/Application Support/forge/config.cue
  - Windows: %APPDATA%\forge\config.cue

FORGE_* environment variables override file values, e.g. FORGE_OFFLINE=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with passwords masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, cmd.OutOrStdout(), format)
		},
	}
	show.Flags().StringVar(&format, "format", formatCUE, "output format: cue or toml")
	cfgCmd.AddCommand(show)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, cmd.OutOrStdout())
		},
	})
	return cfgCmd
}

func showConfig(ctx context.Context, app *App, out io.Writer, format string) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()

	var body string
	switch format {
	case formatCUE:
		if body, err = config.GenerateCUE(redacted); err != nil {
			return err
		}
	case formatTOML:
		if body, err = generateTOML(redacted); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (expected %s or %s)", format, formatCUE, formatTOML)
	}

	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}
	comment := "//"
	if format == formatTOML {
		comment = "#"
	}
	fmt.Fprintf(out, "%s source: %s\n%s", comment, source, body)
	return nil
}

// generateTOML renders cfg as TOML with the same snake_case keys as the CUE
// file. The configuration is converted through its JSON form so the json
// tags name the keys.
func generateTOML(cfg *config.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	out, err := toml.Marshal(integers(doc))
	if err != nil {
		return "", fmt.Errorf("encode config as toml: %w", err)
	}
	return string(out), nil
}

// integers turns the float64 values produced by encoding/json back into
// integers where they are whole, so TOML prints "port = 3128".
func integers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			x[k] = integers(e)
		}
	case []any:
		for i, e := range x {
			x[i] = integers(e)
		}
	case float64:
		if x == math.Trunc(x) {
			return int64(x)
		}
	}
	return v
}

func showConfigPath(app *App, out io.Writer) error {
	if app.configPath != "" {
		fmt.Fprintln(out, app.configPath)
		return nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
