// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/invowk/forge/internal/issue"
	"github.com/invowk/forge/pkg/cueutil"
	"github.com/invowk/forge/pkg/repository"
)

const (
	// AppName is the application name.
	AppName = "forge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. FORGE_OFFLINE.
	EnvPrefix = "FORGE"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the forge configuration directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (default
// ~/.config) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, AppName), nil
}

func loadWithOptions(ctx context.Context, fsys afero.Fs, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("local_repository", defaults.LocalRepository)
	v.SetDefault("offline", defaults.Offline)
	v.SetDefault("repository_merging", string(defaults.RepositoryMerging))
	v.SetDefault("max_parallel", defaults.MaxParallel)

	path, explicit := opts.ConfigFilePath, opts.ConfigFilePath != ""
	if !explicit {
		dir := opts.ConfigDirPath
		if dir == "" {
			var err error
			if dir, err = ConfigDir(); err != nil {
				return nil, err
			}
		}
		path = filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	}

	data, err := afero.ReadFile(fsys, path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		path = ""
	case errors.Is(err, fs.ErrNotExist):
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Use 'forge config show' to see the default configuration").
			Wrap(err).
			BuildError()
	case err != nil:
		return nil, issue.WrapWithContext(err, "load configuration", path)
	default:
		if err := loadCUEIntoViper(v, data, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the #Config schema").
				Wrap(err).
				BuildError()
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = path
	if p, err := repository.ParseMergePolicy(string(cfg.RepositoryMerging)); err == nil {
		cfg.RepositoryMerging = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Give every repository a unique id and an absolute file, http or https url").
			WithSuggestion("Check FORGE_* environment variables").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// loadCUEIntoViper validates data against #Config and merges the decoded map
// into v. Fields are optional, so validation is not concrete and the result is
// a map for viper rather than a struct.
func loadCUEIntoViper(v *viper.Viper, data []byte, path string) error {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) (string, error) {
	body, err := cueutil.Format(cfg)
	if err != nil {
		return "", err
	}
	return "// forge configuration\n\n" + string(body), nil
}
