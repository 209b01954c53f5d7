// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/spf13/afero"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific file, which must exist.
	ConfigFilePath string
	// ConfigDirPath overrides the platform configuration directory.
	ConfigDirPath string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct {
	fs afero.Fs
}

// NewProvider returns a provider reading from fs, or the OS filesystem when fs is nil.
func NewProvider(fs afero.Fs) Provider {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &fileProvider{fs: fs}
}

// Load reads configuration from the requested source. A missing file in the
// configuration directory yields the defaults.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, p.fs, opts)
}
