// SPDX-License-Identifier: MPL-2.0

package extension

import (
	_ "embed"
	"errors"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/archive"
	"github.com/invowk/forge/pkg/cueutil"
)

// DescriptorEntry is the archive entry holding an extension's export descriptor.
const DescriptorEntry = "META-INF/forge/extension.cue"

//go:embed descriptor_schema.cue
var descriptorSchema []byte

type (
	// Descriptor lists what an extension makes visible to the projects using it.
	Descriptor struct {
		// ExportedPackages are imported by project scopes. When empty the
		// whole extension scope is imported instead.
		ExportedPackages []string `json:"exportedPackages,omitempty"`
		// ExportedArtifacts are artifact ids ("artifactId" or
		// "groupId:artifactId") the extension provides to projects; they are
		// excluded from the projects' ordinary dependency resolution.
		ExportedArtifacts []string `json:"exportedArtifacts,omitempty"`
	}

	// DescriptorReader reads the export descriptor of an extension from its
	// root artifact file. It returns (nil, nil) when the artifact has none.
	DescriptorReader interface {
		Read(file string) (*Descriptor, error)
	}

	// ArchiveDescriptorReader reads DescriptorEntry from artifact files on Fs.
	ArchiveDescriptorReader struct {
		Fs afero.Fs
	}

	// InvalidDescriptorError reports an unreadable or malformed descriptor.
	InvalidDescriptorError struct {
		File  string
		Cause error
	}
)

// Read implements DescriptorReader.
func (r ArchiveDescriptorReader) Read(file string) (*Descriptor, error) {
	data, err := archive.ReadEntry(r.Fs, file, DescriptorEntry)
	if errors.Is(err, archive.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &InvalidDescriptorError{File: file, Cause: err}
	}

	result, err := cueutil.ParseAndDecode[Descriptor](descriptorSchema, data, "#Extension",
		cueutil.WithFilename(file+"!/"+DescriptorEntry))
	if err != nil {
		return nil, &InvalidDescriptorError{File: file, Cause: err}
	}
	return result.Value, nil
}

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	return "invalid extension descriptor in " + e.File + ": " + e.Cause.Error()
}

// Is reports whether target is ErrInvalidDescriptor.
func (e *InvalidDescriptorError) Is(target error) bool { return target == ErrInvalidDescriptor }

// Unwrap returns the cause.
func (e *InvalidDescriptorError) Unwrap() error { return e.Cause }
