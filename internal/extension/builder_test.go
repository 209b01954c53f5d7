// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/recordcache"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/internal/testutil"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
)

const extComponents = `components: [{role: "org.forge.api.lifecycle.Participant", implementation: "org.acme.ext.impl.Participant"}]`

func newBuilder(fs afero.Fs, host *countingHost, logger *slog.Logger) (*Builder, *RealmCache) {
	cache := recordcache.New[string, *Realm]()
	return NewBuilder(host, ArchiveDescriptorReader{Fs: fs}, fs, cache, logger), cache
}

func TestScopeForBuildsOnce(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	set := artifact.Set{
		testutil.MustWriteArtifact(t, fs, "org.acme:ext:1.0", "/repo/ext-1.0.jar", map[string]string{
			DescriptorEntry:                 `exportedPackages: ["org.acme.ext.api"], exportedArtifacts: ["ext-api"]`,
			scope.ComponentsEntry:           extComponents,
			"org/acme/ext/api/Lifecycle":    "",
			"org/acme/ext/impl/Participant": "",
		}),
		testutil.MustWriteArtifact(t, fs, "org.acme:api:2.0", "/repo/api-2.0.jar", map[string]string{
			"org/acme/api/Types": "",
		}),
	}
	host := &countingHost{world: scope.NewWorld(fs)}
	b, cache := newBuilder(fs, host, nil)
	ctx := context.Background()

	first, err := b.ScopeFor(ctx, "org.acme:app:1.0", set)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	second, err := b.ScopeFor(ctx, "org.acme:lib:1.0", set)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}

	if first != second {
		t.Error("the same artifact set must yield the same realm")
	}
	if host.created.Load() != 1 || host.discovered.Load() != 1 {
		t.Errorf("scope created %d times and discovered %d times, want 1 and 1", host.created.Load(), host.discovered.Load())
	}
	if first.Scope.ID() != "extension>org.acme:ext:1.0" {
		t.Errorf("scope id = %q", first.Scope.ID())
	}
	if first.Descriptor == nil || first.Descriptor.ExportedPackages[0] != "org.acme.ext.api" || first.Descriptor.ExportedArtifacts[0] != "ext-api" {
		t.Errorf("Descriptor = %+v", first.Descriptor)
	}
	if got := host.world.Components(scope.WithScope(ctx, first.Scope), "org.forge.api.lifecycle.Participant"); len(got) != 1 {
		t.Errorf("components were not discovered: %v", got)
	}
	if owners := cache.Owners(ScopeKey(fs, set)); len(owners) != 2 {
		t.Errorf("Owners() = %v", owners)
	}
}

func TestScopeForWithoutDescriptor(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	set := artifact.Set{testutil.MustWriteArtifact(t, fs, "org.acme:plain:1.0", "/repo/plain-1.0.jar", map[string]string{
		"org/acme/plain/Mojo": "",
	})}
	b, _ := newBuilder(fs, &countingHost{world: scope.NewWorld(fs)}, nil)

	realm, err := b.ScopeFor(context.Background(), "p", set)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if realm.Descriptor != nil {
		t.Errorf("Descriptor = %+v, want nil", realm.Descriptor)
	}
}

func TestScopeForMalformedDescriptorIsNotFatal(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	set := artifact.Set{testutil.MustWriteArtifact(t, fs, "org.acme:bad:1.0", "/repo/bad-1.0.jar", map[string]string{
		DescriptorEntry: `exportedPackages: "not a list"`,
	})}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	b, _ := newBuilder(fs, &countingHost{world: scope.NewWorld(fs)}, logger)

	realm, err := b.ScopeFor(context.Background(), "p", set)
	if err != nil {
		t.Fatalf("ScopeFor() error = %v", err)
	}
	if realm.Descriptor != nil {
		t.Errorf("Descriptor = %+v, want nil", realm.Descriptor)
	}
	if !strings.Contains(logs.String(), "failed to read extension descriptor") {
		t.Errorf("expected an error log, got %q", logs.String())
	}
}

func TestScopeForDiscoveryFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	set := artifact.Set{testutil.MustWriteArtifact(t, fs, "org.acme:ext:1.0", "/repo/ext-1.0.jar", nil)}
	cause := errors.New("registry rejected component")
	host := &countingHost{world: scope.NewWorld(fs), discoveryErr: cause}
	b, cache := newBuilder(fs, host, nil)

	_, err := b.ScopeFor(context.Background(), "p", set)
	if !errors.Is(err, ErrDiscovery) || !errors.Is(err, cause) {
		t.Fatalf("ScopeFor() error = %v, want ErrDiscovery wrapping the cause", err)
	}
	if cache.Len() != 0 {
		t.Error("a discovery failure must not be cached")
	}
	if _, err := b.ScopeFor(context.Background(), "p", set); err == nil {
		t.Error("expected the second attempt to fail too")
	}
	if host.discovered.Load() != 2 {
		t.Errorf("discovery attempted %d times, want 2", host.discovered.Load())
	}
}

func TestScopeKeyTracksFileChanges(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := testutil.MustWriteArtifact(t, fs, "org.acme:ext:1.0", "/repo/ext-1.0.jar", map[string]string{"a/B": "x"})
	set := artifact.Set{a}

	before := ScopeKey(fs, set)
	if before != ScopeKey(fs, set) {
		t.Fatal("ScopeKey() must be stable")
	}
	if err := fs.Chtimes(a.File, time.Now(), time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ScopeKey(fs, set) == before {
		t.Error("ScopeKey() must change when the file is modified")
	}
}

func TestPublicArtifacts(t *testing.T) {
	t.Parallel()

	own := artifact.Artifact{Coordinates: artifact.New("org.acme", "old", "1.0"), File: "/r/old.jar"}
	utils := artifact.Artifact{Coordinates: artifact.New("org.forge", LegacyUtilityArtifactID, "1.1"), File: "/r/utils.jar"}
	other := artifact.Artifact{Coordinates: artifact.New("org.acme", "dep", "1.0"), File: "/r/dep.jar"}
	unresolved := artifact.Artifact{Coordinates: own.Coordinates}

	tests := []struct {
		name      string
		plugin    model.Plugin
		artifacts artifact.Set
		want      int
	}{
		{"legacy pair", model.Plugin{ArtifactID: "old"}, artifact.Set{own, utils}, 1},
		{"declared as extensions", model.Plugin{ArtifactID: "old", Extensions: true}, artifact.Set{own, utils}, 0},
		{"other second artifact", model.Plugin{ArtifactID: "old"}, artifact.Set{own, other}, 0},
		{"single artifact", model.Plugin{ArtifactID: "old"}, artifact.Set{own}, 0},
		{"three artifacts", model.Plugin{ArtifactID: "old"}, artifact.Set{own, utils, other}, 0},
		{"root without file", model.Plugin{ArtifactID: "old"}, artifact.Set{unresolved, utils}, 0},
	}
	for _, tt := range tests {
		got := PublicArtifacts(tt.plugin, tt.artifacts)
		if len(got) != tt.want {
			t.Errorf("%s: PublicArtifacts() = %v", tt.name, got)
			continue
		}
		if tt.want == 1 && got[0].File != own.File {
			t.Errorf("%s: PublicArtifacts() = %v, want the root artifact", tt.name, got)
		}
	}
}
