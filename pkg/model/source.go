// SPDX-License-Identifier: MPL-2.0

package model

import (
	"fmt"

	"github.com/spf13/afero"
)

type (
	// Source is a readable build descriptor.
	Source interface {
		// Location identifies the descriptor in messages (usually a path).
		Location() string
		Read() ([]byte, error)
	}

	// FileSource reads a descriptor from a filesystem.
	FileSource struct {
		Fs   afero.Fs
		Path string
	}

	// BytesSource is a descriptor held in memory.
	BytesSource struct {
		Name string
		Data []byte
	}
)

// Location returns the path.
func (s FileSource) Location() string { return s.Path }

// Read returns the file contents.
func (s FileSource) Read() ([]byte, error) {
	data, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build descriptor at %s: %w", s.Path, err)
	}
	return data, nil
}

// Location returns the name.
func (s BytesSource) Location() string { return s.Name }

// Read returns the data.
func (s BytesSource) Read() ([]byte, error) { return s.Data, nil }

// Load reads and parses the descriptor behind src.
func Load(src Source) (*Model, error) {
	data, err := src.Read()
	if err != nil {
		return nil, err
	}
	return Parse(data, src.Location())
}

// ReadFile parses the descriptor at path on fs.
func ReadFile(fs afero.Fs, path string) (*Model, error) {
	return Load(FileSource{Fs: fs, Path: path})
}
