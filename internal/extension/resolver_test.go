// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/invowk/forge/internal/recordcache"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

func extensionGraph(req resolution.CollectRequest) *resolution.DependencyNode {
	root := leaf(req.Root, "/srv/central/"+req.Root.RepositoryPath())
	root.Children = []*resolution.DependencyNode{
		leaf(artifact.New("org.acme", "api", "2.0"), "/srv/central/org/acme/api/2.0/api-2.0.jar"),
		leaf(artifact.New("org.acme", "unresolved", "1.0"), ""),
	}
	return root
}

func TestResolveIsCachedPerKey(t *testing.T) {
	t.Parallel()

	deps := &countingDependencies{graph: extensionGraph}
	cache := recordcache.New[ArtifactsKey, artifact.Set]()
	r := NewResolver(LatestReleaseResolver{Ranges: &countingRanges{}}, deps, cache, nil)

	plugin := model.Plugin{GroupID: "org.acme", ArtifactID: "ext", Version: "1.0"}
	session := &resolution.Session{ID: "s1"}
	ctx := context.Background()

	first, err := r.Resolve(ctx, "org.acme:app:1.0", plugin, central(), session)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve(ctx, "org.acme:lib:1.0", plugin, central(), session)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if deps.calls.Load() != 1 {
		t.Errorf("dependency resolver called %d times, want 1", deps.calls.Load())
	}
	if &first[0] != &second[0] {
		t.Error("the second request must return the identical cached artifact set")
	}
	if got := first.Files(); !slices.Equal(got, []string{"/srv/central/org/acme/ext/1.0/ext-1.0.jar", "/srv/central/org/acme/api/2.0/api-2.0.jar"}) {
		t.Errorf("artifact files = %v, unresolved nodes must be left out", got)
	}

	key := NewArtifactsKey(plugin.Coordinates(), nil, central(), session)
	if owners := cache.Owners(key); !slices.Equal(owners, []string{"org.acme:app:1.0", "org.acme:lib:1.0"}) {
		t.Errorf("Owners() = %v", owners)
	}

	// another session or another repository list is another key
	if _, err := r.Resolve(ctx, "org.acme:app:1.0", plugin, central(), &resolution.Session{ID: "s2"}); err != nil {
		t.Fatal(err)
	}
	other := []*repository.Repository{repository.MustBuild(repository.Declaration{ID: "central", URL: "file:///srv/mirror"})}
	if _, err := r.Resolve(ctx, "org.acme:app:1.0", plugin, other, session); err != nil {
		t.Fatal(err)
	}
	if deps.calls.Load() != 3 {
		t.Errorf("dependency resolver called %d times, want 3", deps.calls.Load())
	}
}

func TestResolveFailureIsCached(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	deps := &countingDependencies{err: cause}
	r := NewResolver(LatestReleaseResolver{Ranges: &countingRanges{}}, deps, recordcache.New[ArtifactsKey, artifact.Set](), nil)

	plugin := model.Plugin{GroupID: "org.acme", ArtifactID: "ext", Version: "1.0"}
	session := &resolution.Session{ID: "s1"}

	_, first := r.Resolve(context.Background(), "org.acme:app:1.0", plugin, central(), session)
	_, second := r.Resolve(context.Background(), "org.acme:lib:1.0", plugin, central(), session)

	if !errors.Is(first, ErrPluginResolution) || !errors.Is(first, cause) {
		t.Fatalf("Resolve() error = %v, want ErrPluginResolution wrapping the cause", first)
	}
	if first != second {
		t.Error("the cached failure must be returned verbatim")
	}
	if deps.calls.Load() != 1 {
		t.Errorf("dependency resolver called %d times, want 1", deps.calls.Load())
	}
	var pre *PluginResolutionError
	if !errors.As(first, &pre) || pre.Plugin.ID() != "org.acme:ext:1.0" {
		t.Errorf("error should carry the extension coordinates, got %v", first)
	}
}

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		versions []string
		err      error
		want     artifact.Version
		wantErr  bool
	}{
		{name: "highest release", versions: []string{"1.0", "1.2", "1.3-SNAPSHOT"}, want: "1.2"},
		{name: "only snapshots", versions: []string{"0.1-SNAPSHOT", "0.2-SNAPSHOT"}, want: "0.2-SNAPSHOT"},
		{name: "nothing published", wantErr: true},
		{name: "range lookup fails", err: errors.New("offline"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			requests := make(chan resolution.CollectRequest, 1)
			deps := &countingDependencies{graph: extensionGraph, requests: requests}
			ranges := &countingRanges{versions: tt.versions, err: tt.err}
			r := NewResolver(LatestReleaseResolver{Ranges: ranges}, deps, recordcache.New[ArtifactsKey, artifact.Set](), nil)

			set, err := r.Resolve(context.Background(), "org.acme:app:1.0",
				model.Plugin{GroupID: "org.acme", ArtifactID: "ext"}, central(), &resolution.Session{ID: "s"})
			if tt.wantErr {
				if !errors.Is(err, ErrVersionResolution) {
					t.Fatalf("Resolve() error = %v, want ErrVersionResolution", err)
				}
				if deps.calls.Load() != 0 {
					t.Error("artifacts must not be resolved without a version")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if req := <-requests; req.Root.Version != tt.want {
				t.Errorf("collected version = %q, want %q", req.Root.Version, tt.want)
			}
			if root, _ := set.Root(); root.Version != tt.want {
				t.Errorf("root version = %q, want %q", root.Version, tt.want)
			}
		})
	}
}

func TestResolvePassesPluginDependencies(t *testing.T) {
	t.Parallel()

	requests := make(chan resolution.CollectRequest, 1)
	deps := &countingDependencies{graph: extensionGraph, requests: requests}
	r := NewResolver(LatestReleaseResolver{Ranges: &countingRanges{}}, deps, recordcache.New[ArtifactsKey, artifact.Set](), nil)

	plugin := model.Plugin{
		GroupID: "org.acme", ArtifactID: "ext", Version: "1.0",
		Dependencies: []model.Dependency{{GroupID: "org.acme", ArtifactID: "extra", Version: "3.0"}},
	}
	if _, err := r.Resolve(context.Background(), "p", plugin, central(), &resolution.Session{ID: "s"}); err != nil {
		t.Fatal(err)
	}
	req := <-requests
	if len(req.Dependencies) != 1 || req.Dependencies[0].ID() != "org.acme:extra:3.0" {
		t.Errorf("Dependencies = %v", req.Dependencies)
	}
	if req.Context != resolution.ContextPlugin {
		t.Errorf("Context = %q", req.Context)
	}
}

func TestResolveVersionFailureIsCached(t *testing.T) {
	t.Parallel()

	ranges := &countingRanges{}
	cache := recordcache.New[ArtifactsKey, artifact.Set]()
	r := NewResolver(LatestReleaseResolver{Ranges: ranges}, &countingDependencies{graph: extensionGraph}, cache, nil)

	plugin := model.Plugin{GroupID: "org.acme", ArtifactID: "ghost"}
	session := &resolution.Session{ID: "s"}
	ctx := context.Background()

	_, first := r.Resolve(ctx, "org.acme:app:1.0", plugin, central(), session)
	_, second := r.Resolve(ctx, "org.acme:lib:1.0", plugin, central(), session)
	if !errors.Is(first, ErrVersionResolution) {
		t.Fatalf("Resolve() error = %v, want ErrVersionResolution", first)
	}
	if first != second {
		t.Errorf("second error = %v, want the cached error value", second)
	}
	if ranges.calls.Load() != 1 {
		t.Errorf("version ranges requested %d times, want 1", ranges.calls.Load())
	}

	key := NewArtifactsKey(plugin.Coordinates(), nil, central(), session)
	if owners := cache.Owners(key); !slices.Equal(owners, []string{"org.acme:app:1.0", "org.acme:lib:1.0"}) {
		t.Errorf("Owners() = %v", owners)
	}

	// another session asks again
	if _, err := r.Resolve(ctx, "org.acme:app:1.0", plugin, central(), &resolution.Session{ID: "s2"}); err == nil {
		t.Fatal("Resolve() expected an error")
	}
	if ranges.calls.Load() != 2 {
		t.Errorf("version ranges requested %d times, want 2", ranges.calls.Load())
	}
}
