// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/archive"
	"github.com/invowk/forge/pkg/artifact"
)

// MustWriteFile writes data to path on fs, creating parent directories.
// The test fails immediately if the write fails.
func MustWriteFile(t testing.TB, fs afero.Fs, path, data string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := afero.WriteFile(fs, path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustParseCoordinates parses "groupId:artifactId[:extension[:classifier]]:version".
// The test fails immediately if the coordinates are malformed.
func MustParseCoordinates(t testing.TB, s string) artifact.Coordinates {
	t.Helper()
	c, err := artifact.Parse(s)
	if err != nil {
		t.Fatalf("invalid coordinates %q: %v", s, err)
	}
	return c
}

// MustWriteArtifact writes a zip archive holding entries to file and returns
// the artifact for the given coordinates. The test fails immediately if the
// archive cannot be written.
func MustWriteArtifact(t testing.TB, fs afero.Fs, coords, file string, entries map[string]string) artifact.Artifact {
	t.Helper()
	content := make(map[string][]byte, len(entries))
	for name, data := range entries {
		content[name] = []byte(data)
	}
	if err := archive.Write(fs, file, content); err != nil {
		t.Fatalf("failed to write artifact %s: %v", file, err)
	}
	return artifact.Artifact{Coordinates: MustParseCoordinates(t, coords), File: file}
}
