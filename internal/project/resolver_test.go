// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

func (f *fixture) modelResolver(pool *ReactorModelPool) *ModelResolver {
	return NewModelResolver(ModelResolverConfig{
		System:       f.sys,
		Fs:           f.fs,
		Session:      f.session,
		Trace:        resolution.NewTrace("org.acme:app:1.0"),
		Repositories: []*repository.Repository{f.repo.Repository("central")},
		Policy:       repository.POMDominant,
		Pool:         pool,
	})
}

func TestResolveModelFromReactorPool(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	src := model.BytesSource{Name: "/work/parent/forge.cue", Data: []byte(`groupId: "org.acme", artifactId: "parent", version: "1.0"`)}
	m, err := model.Load(src)
	if err != nil {
		t.Fatalf("model.Load() error = %v", err)
	}
	pool := NewReactorModelPool()
	pool.Put(m, src)

	got, err := f.modelResolver(pool).ResolveModel(context.Background(), "org.acme", "parent", "1.0")
	if err != nil {
		t.Fatalf("ResolveModel() error = %v", err)
	}
	if bs, ok := got.(model.BytesSource); !ok || bs.Name != src.Name {
		t.Errorf("ResolveModel() = %v, want the reactor source", got)
	}
	if n := f.sys.artifacts.Load(); n != 0 {
		t.Errorf("artifact resolver called %d times for a reactor module, want 0", n)
	}
}

func TestResolveModelFromRepository(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.repo.Publish("org.acme:parent:1.0", nil)

	src, err := f.modelResolver(nil).ResolveModel(context.Background(), "org.acme", "parent", "1.0")
	if err != nil {
		t.Fatalf("ResolveModel() error = %v", err)
	}
	if want := f.repo.Path(artifact.New("org.acme", "parent", "1.0").WithExtension("cue")); src.Location() != want {
		t.Errorf("Location() = %q, want %q", src.Location(), want)
	}
	m, err := model.Load(src)
	if err != nil {
		t.Fatalf("model.Load() error = %v", err)
	}
	if m.ID() != "org.acme:parent:1.0" {
		t.Errorf("ID() = %q", m.ID())
	}
}

func TestResolveModelUnresolvable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.modelResolver(nil).ResolveModel(context.Background(), "org.acme", "ghost", "3.1")

	if !errors.Is(err, ErrUnresolvableModel) || !errors.Is(err, resolution.ErrArtifactNotFound) {
		t.Fatalf("ResolveModel() error = %v, want ErrUnresolvableModel caused by ErrArtifactNotFound", err)
	}
	var ume *UnresolvableModelError
	if !errors.As(err, &ume) || ume.ArtifactID != "ghost" || ume.Version != "3.1" {
		t.Errorf("error = %#v, want the coordinates of the descriptor", err)
	}
	if !strings.Contains(err.Error(), "org.acme:ghost:3.1") {
		t.Errorf("Error() = %q, want the coordinates", err.Error())
	}
}

func TestResolveParent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		version     artifact.Version
		wantVersion artifact.Version
		wantReason  string
	}{
		{name: "bounded range", version: "[1.0,2.0]", wantVersion: "1.5"},
		{name: "exclusive upper bound", version: "[1.0,1.5)", wantVersion: "1.0"},
		{name: "soft version", version: "2.5", wantVersion: "2.5"},
		{name: "no upper bound", version: "[1.0,)", wantReason: "does not specify an upper bound"},
		{name: "no match", version: "[3.0,4.0]", wantReason: "no versions matched"},
		{name: "soft version not published", version: "9.0", wantReason: "could not find artifact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			for _, v := range []string{"1.0", "1.5", "2.5"} {
				f.repo.Publish("org.acme:parent:"+v, nil)
			}
			parent := &model.Parent{GroupID: "org.acme", ArtifactID: "parent", Version: tt.version}

			src, err := f.modelResolver(nil).ResolveParent(context.Background(), parent)
			if tt.wantReason != "" {
				if !errors.Is(err, ErrUnresolvableModel) {
					t.Fatalf("ResolveParent() error = %v, want ErrUnresolvableModel", err)
				}
				if !strings.Contains(err.Error(), tt.wantReason) {
					t.Errorf("Error() = %q, want it to mention %q", err.Error(), tt.wantReason)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveParent() error = %v", err)
			}
			if parent.Version != tt.wantVersion {
				t.Errorf("parent version = %q, want %q", parent.Version, tt.wantVersion)
			}
			m, err := model.Load(src)
			if err != nil {
				t.Fatalf("model.Load() error = %v", err)
			}
			if m.EffectiveVersion() != tt.wantVersion {
				t.Errorf("resolved descriptor version = %q, want %q", m.EffectiveVersion(), tt.wantVersion)
			}
		})
	}
}

func TestAddRepositoryKeepsFirstDeclaration(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.modelResolver(nil)
	first := repository.Declaration{ID: "a", URL: "https://u1.example.com"}
	second := repository.Declaration{ID: "a", URL: "https://u2.example.com"}

	if err := r.AddRepository(first, false); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}
	if err := r.AddRepository(second, false); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}
	want := []string{"a=https://u1.example.com", "central=file:///srv/central"}
	if got := repoURLs(r.Repositories()); !slices.Equal(got, want) {
		t.Errorf("Repositories() = %v, want %v", got, want)
	}

	if err := r.AddRepository(second, true); err != nil {
		t.Fatalf("AddRepository(replace) error = %v", err)
	}
	want = []string{"a=https://u2.example.com", "central=file:///srv/central"}
	if got := repoURLs(r.Repositories()); !slices.Equal(got, want) {
		t.Errorf("Repositories() after replace = %v, want %v", got, want)
	}
	if got := repoURLs(r.DeclaredRepositories()); !slices.Equal(got, []string{"a=https://u2.example.com"}) {
		t.Errorf("DeclaredRepositories() after replace = %v", got)
	}
}

func TestAddRepositoryInvalid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.modelResolver(nil).AddRepository(repository.Declaration{ID: "a", URL: "https://x", Layout: "flat"}, false)
	if !errors.Is(err, repository.ErrInvalidRepository) {
		t.Errorf("AddRepository() error = %v, want ErrInvalidRepository", err)
	}
}

func TestAddRepositoriesFromModel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	r := f.modelResolver(nil)
	m, err := model.Parse([]byte(`
groupId: "org.acme"
artifactId: "parent"
version: "1.0"
repositories: [
	{id: "vendor", url: "https://vendor.example.com"},
	{id: "vendor", url: "https://other.example.com"},
]
`), "parent.cue")
	if err != nil {
		t.Fatalf("model.Parse() error = %v", err)
	}

	if err := r.AddRepositories(m); err != nil {
		t.Fatalf("AddRepositories() error = %v", err)
	}
	want := []string{"vendor=https://vendor.example.com", "central=file:///srv/central"}
	if got := repoURLs(r.Repositories()); !slices.Equal(got, want) {
		t.Errorf("Repositories() = %v, want %v", got, want)
	}
}

func TestNewCopyIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	pool := NewReactorModelPool()
	base := f.modelResolver(pool)
	left, right := base.NewCopy(), base.NewCopy()

	if err := left.AddRepository(repository.Declaration{ID: "left", URL: "https://left.example.com"}, false); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}
	if err := right.AddRepository(repository.Declaration{ID: "right", URL: "https://right.example.com"}, false); err != nil {
		t.Fatalf("AddRepository() error = %v", err)
	}

	if got := repoURLs(left.Repositories()); !slices.Equal(got, []string{"left=https://left.example.com", "central=file:///srv/central"}) {
		t.Errorf("left Repositories() = %v", got)
	}
	if got := repoURLs(right.Repositories()); !slices.Equal(got, []string{"right=https://right.example.com", "central=file:///srv/central"}) {
		t.Errorf("right Repositories() = %v", got)
	}
	if got := repoURLs(base.Repositories()); !slices.Equal(got, []string{"central=file:///srv/central"}) {
		t.Errorf("base Repositories() = %v, copies must not affect the original", got)
	}
	if left.pool != pool || right.session != base.session {
		t.Error("copies must share the session and the reactor pool")
	}
}
