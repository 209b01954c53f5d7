// SPDX-License-Identifier: MPL-2.0

package localrepo

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/testutil"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

func newFixture(t *testing.T) (*System, *testutil.Repo) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return New(fs), testutil.NewRepo(t, fs, "/srv/central")
}

func versionStrings(res *resolution.VersionRangeResult) []string {
	out := make([]string, 0, len(res.Versions))
	for _, v := range res.Versions {
		out = append(out, v.String())
	}
	return out
}

func TestResolveArtifact(t *testing.T) {
	t.Parallel()

	sys, repo := newFixture(t)
	repo.Publish("org.acme:tool:1.0", nil)
	central := repo.Repository("central")
	remote := repository.MustBuild(repository.Declaration{ID: "remote", URL: "https://repo.example.com/forge"})

	tests := []struct {
		name     string
		coords   string
		repos    []*repository.Repository
		wantFile string
		wantRepo repository.ID
		wantErr  bool
	}{
		{
			name:     "found in file repository",
			coords:   "org.acme:tool:1.0",
			repos:    []*repository.Repository{remote, central},
			wantFile: "/srv/central/org/acme/tool/1.0/tool-1.0.jar",
			wantRepo: "central",
		},
		{
			name:   "missing version",
			coords: "org.acme:tool:2.0", repos: []*repository.Repository{central},
			wantErr: true,
		},
		{
			name:   "only remote repositories",
			coords: "org.acme:tool:1.0", repos: []*repository.Repository{remote},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := sys.ResolveArtifact(context.Background(), &resolution.Session{}, resolution.ArtifactRequest{
				Artifact:     testutil.MustParseCoordinates(t, tt.coords),
				Repositories: tt.repos,
			})
			if tt.wantErr {
				if !errors.Is(err, resolution.ErrArtifactNotFound) {
					t.Fatalf("ResolveArtifact() error = %v, want ErrArtifactNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveArtifact() error = %v", err)
			}
			if res.Artifact.File != tt.wantFile {
				t.Errorf("File = %q, want %q", res.Artifact.File, tt.wantFile)
			}
			if res.Repository.ID != tt.wantRepo {
				t.Errorf("Repository = %q, want %q", res.Repository.ID, tt.wantRepo)
			}
		})
	}
}

func TestResolveArtifactPrefersLocalRepository(t *testing.T) {
	t.Parallel()

	sys, repo := newFixture(t)
	local := testutil.NewRepo(t, sys.Fs(), "/home/dev/.forge/repository")
	local.Publish("org.acme:tool:1.0", nil)
	repo.Publish("org.acme:tool:1.0", nil)

	res, err := sys.ResolveArtifact(context.Background(),
		&resolution.Session{LocalRepository: local.Root},
		resolution.ArtifactRequest{
			Artifact:     artifact.New("org.acme", "tool", "1.0"),
			Repositories: []*repository.Repository{repo.Repository("central")},
		})
	if err != nil {
		t.Fatalf("ResolveArtifact() error = %v", err)
	}
	if res.Repository.ID != localRepositoryID {
		t.Errorf("Repository = %q, want the local repository", res.Repository.ID)
	}
}

func TestResolveArtifactHonorsPolicies(t *testing.T) {
	t.Parallel()

	sys, repo := newFixture(t)
	repo.Publish("org.acme:tool:1.0-SNAPSHOT", nil)
	disabled := false
	releasesOnly := repository.MustBuild(repository.Declaration{
		ID: "releases", URL: repo.URL(),
		Snapshots: &repository.PolicyDeclaration{Enabled: &disabled},
	})

	_, err := sys.ResolveArtifact(context.Background(), &resolution.Session{}, resolution.ArtifactRequest{
		Artifact:     artifact.New("org.acme", "tool", "1.0-SNAPSHOT"),
		Repositories: []*repository.Repository{releasesOnly},
	})
	if !errors.Is(err, resolution.ErrArtifactNotFound) {
		t.Errorf("ResolveArtifact() error = %v, snapshots must not come from a releases-only repository", err)
	}
}

func TestResolveArtifactLegacyLayout(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	sys := New(fs)
	testutil.MustWriteFile(t, fs, "/srv/legacy/org.acme/jars/tool-1.0.jar", "jar")
	legacy := repository.MustBuild(repository.Declaration{ID: "old", URL: "file:///srv/legacy", Layout: "legacy"})

	res, err := sys.ResolveArtifact(context.Background(), &resolution.Session{}, resolution.ArtifactRequest{
		Artifact:     artifact.New("org.acme", "tool", "1.0"),
		Repositories: []*repository.Repository{legacy},
	})
	if err != nil {
		t.Fatalf("ResolveArtifact() error = %v", err)
	}
	if want := filepath.FromSlash("/srv/legacy/org.acme/jars/tool-1.0.jar"); res.Artifact.File != want {
		t.Errorf("File = %q, want %q", res.Artifact.File, want)
	}
}

func TestResolveVersionRange(t *testing.T) {
	t.Parallel()

	sys, repo := newFixture(t)
	mirror := testutil.NewRepo(t, sys.Fs(), "/srv/mirror")
	for _, v := range []string{"1.0", "1.5", "2.0"} {
		repo.Publish("org.acme:parent:"+v, nil)
	}
	mirror.Publish("org.acme:parent:1.7", nil)
	mirror.Publish("org.acme:parent:1.5", nil)
	testutil.MustWriteFile(t, sys.Fs(), "/srv/central/org/acme/parent/not-a-version!/x", "")
	repos := []*repository.Repository{repo.Repository("central"), mirror.Repository("mirror")}

	tests := []struct {
		name       string
		constraint string
		want       []string
	}{
		{name: "soft version resolves to itself", constraint: "9.9", want: []string{"9.9"}},
		{name: "bounded range", constraint: "[1.0,2.0)", want: []string{"1.0", "1.5", "1.7"}},
		{name: "open range", constraint: "[1.6,)", want: []string{"1.7", "2.0"}},
		{name: "no match", constraint: "[3.0,4.0]", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := sys.ResolveVersionRange(context.Background(), &resolution.Session{}, resolution.VersionRangeRequest{
				Artifact:     artifact.New("org.acme", "parent", artifact.Version(tt.constraint)),
				Repositories: repos,
			})
			if err != nil {
				t.Fatalf("ResolveVersionRange() error = %v", err)
			}
			if got := versionStrings(res); !slices.Equal(got, tt.want) {
				t.Errorf("Versions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveVersionRangeRecordsFirstRepository(t *testing.T) {
	t.Parallel()

	sys, repo := newFixture(t)
	mirror := testutil.NewRepo(t, sys.Fs(), "/srv/mirror")
	repo.Publish("org.acme:parent:1.5", nil)
	mirror.Publish("org.acme:parent:1.5", nil)

	res, err := sys.ResolveVersionRange(context.Background(), &resolution.Session{}, resolution.VersionRangeRequest{
		Artifact:     artifact.New("org.acme", "parent", "[1,2)"),
		Repositories: []*repository.Repository{repo.Repository("central"), mirror.Repository("mirror")},
	})
	if err != nil {
		t.Fatalf("ResolveVersionRange() error = %v", err)
	}
	if r := res.RepositoryFor(res.HighestVersion()); r == nil || r.ID != "central" {
		t.Errorf("RepositoryFor() = %v, want central", r)
	}
}

func TestResolveVersionRangeInvalid(t *testing.T) {
	t.Parallel()

	sys, _ := newFixture(t)
	_, err := sys.ResolveVersionRange(context.Background(), &resolution.Session{}, resolution.VersionRangeRequest{
		Artifact: artifact.New("org.acme", "parent", "[2.0"),
	})
	if err == nil {
		t.Error("ResolveVersionRange() expected an error for an unterminated range")
	}
}

func TestRepositoryManagement(t *testing.T) {
	t.Parallel()

	sys, _ := newFixture(t)
	session := &resolution.Session{Settings: repository.Settings{
		Mirrors: []repository.Mirror{{ID: "corp", URL: "file:///srv/corp", MirrorOf: "*"}},
	}}

	r, err := sys.BuildRepository(repository.Declaration{ID: "central", URL: "https://repo.example.com"})
	if err != nil {
		t.Fatalf("BuildRepository() error = %v", err)
	}
	repos := []*repository.Repository{r}
	sys.InjectMirror(session, repos)
	if repos[0].ID != "corp" || len(repos[0].Mirrored) != 1 {
		t.Errorf("InjectMirror() = %v, want the corp mirror standing in for central", repos[0])
	}

	if _, err := sys.BuildRepository(repository.Declaration{ID: "bad", URL: "ftp://x"}); !errors.Is(err, repository.ErrInvalidRepository) {
		t.Errorf("BuildRepository() error = %v, want ErrInvalidRepository", err)
	}
}
