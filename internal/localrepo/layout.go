// SPDX-License-Identifier: MPL-2.0

package localrepo

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
)

// artifactPath returns the file of c inside r.
func artifactPath(r *repository.Repository, c artifact.Coordinates) string {
	root := filepath.FromSlash(r.Path())
	if r.Layout == repository.LayoutLegacy {
		return filepath.Join(root, string(c.GroupID), c.Ext()+"s", c.FileName())
	}
	return filepath.Join(root, filepath.FromSlash(c.RepositoryPath()))
}

// versionsDir returns the directory holding one sub-directory per published
// version of c in a repository with the default layout.
func versionsDir(r *repository.Repository, c artifact.Coordinates) string {
	group := strings.ReplaceAll(string(c.GroupID), ".", "/")
	return filepath.Join(filepath.FromSlash(r.Path()), filepath.FromSlash(group), string(c.ArtifactID))
}

// legacyVersions extracts the versions of c from descriptor file names in a
// legacy repository: <artifactId>-<version>.cue inside <groupId>/cues.
func legacyVersions(fs afero.Fs, r *repository.Repository, c artifact.Coordinates) []string {
	dir := filepath.Join(filepath.FromSlash(r.Path()), string(c.GroupID), "cues")
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil
	}
	prefix := string(c.ArtifactID) + "-"
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".cue") {
			continue
		}
		out = append(out, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".cue"))
	}
	return out
}
