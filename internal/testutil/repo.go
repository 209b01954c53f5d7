// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
)

type (
	// Repo is a file repository with the default layout rooted at Root on Fs.
	Repo struct {
		t    testing.TB
		Fs   afero.Fs
		Root string
	}

	// Dep is a dependency written into a published descriptor.
	Dep struct {
		Coords   string
		Scope    string
		Optional bool
	}
)

// NewRepo returns a repository rooted at root.
func NewRepo(t testing.TB, fs afero.Fs, root string) *Repo {
	t.Helper()
	if err := fs.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("failed to create repository %s: %v", root, err)
	}
	return &Repo{t: t, Fs: fs, Root: root}
}

// URL returns the file:// URL of the repository.
func (r *Repo) URL() string { return "file://" + filepath.ToSlash(r.Root) }

// Repository returns the repository built with the given id.
func (r *Repo) Repository(id string) *repository.Repository {
	r.t.Helper()
	repo, err := repository.Build(repository.Declaration{ID: id, URL: r.URL()})
	if err != nil {
		r.t.Fatalf("failed to build repository %s: %v", id, err)
	}
	return repo
}

// Path returns the file of coords inside the repository.
func (r *Repo) Path(coords artifact.Coordinates) string {
	return filepath.Join(r.Root, filepath.FromSlash(coords.RepositoryPath()))
}

// Publish writes an artifact archive holding entries and its descriptor
// declaring deps, and returns the published artifact.
func (r *Repo) Publish(coords string, entries map[string]string, deps ...Dep) artifact.Artifact {
	r.t.Helper()
	c := MustParseCoordinates(r.t, coords)
	a := MustWriteArtifact(r.t, r.Fs, coords, r.Path(c), entries)
	r.PublishDescriptor(coords, Descriptor(c, deps...))
	return a
}

// PublishDescriptor writes a build descriptor next to the artifact.
func (r *Repo) PublishDescriptor(coords, descriptor string) {
	r.t.Helper()
	c := MustParseCoordinates(r.t, coords).WithExtension("cue")
	c.Classifier = ""
	MustWriteFile(r.t, r.Fs, r.Path(c), descriptor)
}

// Descriptor renders a minimal build descriptor for c declaring deps.
func Descriptor(c artifact.Coordinates, deps ...Dep) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "groupId: %q\nartifactId: %q\nversion: %q\n", c.GroupID, c.ArtifactID, c.Version)
	if len(deps) == 0 {
		return sb.String()
	}
	sb.WriteString("dependencies: [\n")
	for _, d := range deps {
		dc, err := artifact.Parse(d.Coords)
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(&sb, "\t{groupId: %q, artifactId: %q, version: %q", dc.GroupID, dc.ArtifactID, dc.Version)
		if d.Scope != "" {
			fmt.Fprintf(&sb, ", scope: %q", d.Scope)
		}
		if d.Optional {
			sb.WriteString(", optional: true")
		}
		sb.WriteString("},\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}
