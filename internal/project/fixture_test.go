// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/extension"
	"github.com/invowk/forge/internal/localrepo"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/internal/testutil"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

const participantComponents = `components: [{role: "org.forge.api.lifecycle.Participant", implementation: "org.acme.ext.impl.Participant"}]`

// countingSystem counts the requests reaching the file repositories.
type countingSystem struct {
	*localrepo.System
	artifacts    atomic.Int32
	ranges       atomic.Int32
	dependencies atomic.Int32
}

func (s *countingSystem) ResolveArtifact(ctx context.Context, session *resolution.Session, req resolution.ArtifactRequest) (*resolution.ArtifactResult, error) {
	s.artifacts.Add(1)
	return s.System.ResolveArtifact(ctx, session, req)
}

func (s *countingSystem) ResolveVersionRange(ctx context.Context, session *resolution.Session, req resolution.VersionRangeRequest) (*resolution.VersionRangeResult, error) {
	s.ranges.Add(1)
	return s.System.ResolveVersionRange(ctx, session, req)
}

func (s *countingSystem) ResolveDependencies(ctx context.Context, session *resolution.Session, req resolution.CollectRequest) (*resolution.DependencyNode, error) {
	s.dependencies.Add(1)
	return s.System.ResolveDependencies(ctx, session, req)
}

type fixture struct {
	fs      afero.Fs
	sys     *countingSystem
	repo    *testutil.Repo
	world   *scope.World
	caches  *Caches
	helper  *Helper
	session *resolution.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	sys := &countingSystem{System: localrepo.New(fs)}
	world := scope.NewWorld(fs)
	caches := NewCaches()
	return &fixture{
		fs:      fs,
		sys:     sys,
		repo:    testutil.NewRepo(t, fs, "/srv/central"),
		world:   world,
		caches:  caches,
		helper:  NewHelper(sys, world, fs, caches),
		session: &resolution.Session{ID: "test"},
	}
}

// publishExtension publishes an extension whose archive declares a
// participant component, plus descriptor when it is not empty.
func (f *fixture) publishExtension(coords, descriptor string, deps ...testutil.Dep) {
	entries := map[string]string{
		scope.ComponentsEntry:           participantComponents,
		"org/acme/ext/api/Lifecycle":    "",
		"org/acme/ext/impl/Participant": "",
	}
	if descriptor != "" {
		entries[extension.DescriptorEntry] = descriptor
	}
	f.repo.Publish(coords, entries, deps...)
}

func (f *fixture) project(t *testing.T, descriptor string) (*Project, *model.Model) {
	t.Helper()
	m, err := model.Parse([]byte(descriptor), "/work/forge.cue")
	if err != nil {
		t.Fatalf("model.Parse() error = %v", err)
	}
	return &Project{Model: m, PluginRepositories: []*repository.Repository{f.repo.Repository("central")}}, m
}

func (f *fixture) request() *BuildingRequest {
	return &BuildingRequest{Session: f.session, Policy: repository.POMDominant}
}
