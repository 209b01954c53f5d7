// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

// redactedPassword replaces credentials in Redacted.
const redactedPassword = "********"

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config is the user configuration of forge.
	Config struct {
		LocalRepository    string                    `json:"local_repository,omitempty" mapstructure:"local_repository"`
		Offline            bool                      `json:"offline" mapstructure:"offline"`
		RepositoryMerging  repository.MergePolicy    `json:"repository_merging" mapstructure:"repository_merging"`
		MaxParallel        int                       `json:"max_parallel" mapstructure:"max_parallel"`
		Repositories       []RepositoryEntry         `json:"repositories,omitempty" mapstructure:"repositories"`
		PluginRepositories []RepositoryEntry         `json:"plugin_repositories,omitempty" mapstructure:"plugin_repositories"`
		Mirrors            []repository.Mirror       `json:"mirrors,omitempty" mapstructure:"mirrors"`
		Proxies            []repository.ProxySetting `json:"proxies,omitempty" mapstructure:"proxies"`
		Servers            []repository.Server       `json:"servers,omitempty" mapstructure:"servers"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// RepositoryEntry is a repository declared in the configuration. These
	// form the externally supplied lists merged with descriptor repositories.
	RepositoryEntry struct {
		ID        string       `json:"id" mapstructure:"id"`
		Name      string       `json:"name,omitempty" mapstructure:"name"`
		URL       string       `json:"url" mapstructure:"url"`
		Layout    string       `json:"layout,omitempty" mapstructure:"layout"`
		Releases  *PolicyEntry `json:"releases,omitempty" mapstructure:"releases"`
		Snapshots *PolicyEntry `json:"snapshots,omitempty" mapstructure:"snapshots"`
	}

	// PolicyEntry is a release or snapshot policy.
	PolicyEntry struct {
		Enabled        *bool  `json:"enabled,omitempty" mapstructure:"enabled"`
		UpdatePolicy   string `json:"update_policy,omitempty" mapstructure:"update_policy"`
		ChecksumPolicy string `json:"checksum_policy,omitempty" mapstructure:"checksum_policy"`
	}

	// InvalidConfigError lists every problem found by Validate.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		RepositoryMerging: repository.POMDominant,
		MaxParallel:       max(runtime.NumCPU(), 1),
	}
}

// DefaultLocalRepository returns ~/.forge/repository.
func DefaultLocalRepository() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".forge", "repository"), nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the constraints the schema cannot express: merge policy
// spelling from environment overrides, buildable repositories and unique ids.
func (c *Config) Validate() error {
	var errs []error
	if err := c.RepositoryMerging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("repository_merging: %w", err))
	}
	if c.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("max_parallel: must be at least 1, got %d", c.MaxParallel))
	}
	errs = append(errs, validateEntries("repositories", c.Repositories)...)
	errs = append(errs, validateEntries("plugin_repositories", c.PluginRepositories)...)
	for i, m := range c.Mirrors {
		if _, err := repository.Build(repository.Declaration{ID: m.ID, URL: m.URL, Layout: m.Layout}); err != nil {
			errs = append(errs, fmt.Errorf("mirrors[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func validateEntries(field string, entries []RepositoryEntry) []error {
	var errs []error
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if first, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%s[%d]: duplicate id %q (same as %s[%d])", field, i, e.ID, field, first))
			continue
		}
		seen[e.ID] = i
		if _, err := repository.Build(e.Declaration()); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", field, i, err))
		}
	}
	return errs
}

// Declaration converts the entry to a repository declaration.
func (e RepositoryEntry) Declaration() repository.Declaration {
	return repository.Declaration{
		ID:        e.ID,
		Name:      e.Name,
		URL:       e.URL,
		Layout:    e.Layout,
		Releases:  e.Releases.declaration(),
		Snapshots: e.Snapshots.declaration(),
	}
}

func (p *PolicyEntry) declaration() *repository.PolicyDeclaration {
	if p == nil {
		return nil
	}
	return &repository.PolicyDeclaration{
		Enabled:        p.Enabled,
		UpdatePolicy:   p.UpdatePolicy,
		ChecksumPolicy: p.ChecksumPolicy,
	}
}

// RemoteRepositories returns the externally supplied artifact repositories.
func (c *Config) RemoteRepositories() []repository.Declaration {
	return declarations(c.Repositories)
}

// PluginRepositoryDeclarations returns the externally supplied plugin repositories.
func (c *Config) PluginRepositoryDeclarations() []repository.Declaration {
	return declarations(c.PluginRepositories)
}

func declarations(entries []RepositoryEntry) []repository.Declaration {
	out := make([]repository.Declaration, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Declaration())
	}
	return out
}

// Settings returns the mirrors, proxies and servers.
func (c *Config) Settings() repository.Settings {
	return repository.Settings{Mirrors: c.Mirrors, Proxies: c.Proxies, Servers: c.Servers}
}

// Session returns a resolution session named id. An unset local repository
// falls back to DefaultLocalRepository.
func (c *Config) Session(id string) (*resolution.Session, error) {
	local := c.LocalRepository
	if local == "" {
		var err error
		if local, err = DefaultLocalRepository(); err != nil {
			return nil, err
		}
	}
	return &resolution.Session{
		ID:              id,
		LocalRepository: local,
		Offline:         c.Offline,
		Settings:        c.Settings(),
	}, nil
}

// Redacted returns a copy with every password masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Proxies = make([]repository.ProxySetting, len(c.Proxies))
	for i, p := range c.Proxies {
		if p.Password != "" {
			p.Password = redactedPassword
		}
		out.Proxies[i] = p
	}
	out.Servers = make([]repository.Server, len(c.Servers))
	for i, s := range c.Servers {
		if s.Password != "" {
			s.Password = redactedPassword
		}
		out.Servers[i] = s
	}
	return &out
}
