// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/extension"
	"github.com/invowk/forge/internal/recordcache"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

type (
	// ScopeCache caches composed project scopes by the ordered ids of the
	// extension scopes they import from.
	ScopeCache = recordcache.Cache[string, *ScopeRecord]

	// Caches are the session caches of the building pipeline.
	Caches struct {
		Artifacts *extension.ArtifactsCache
		Realms    *extension.RealmCache
		Projects  *ScopeCache
	}

	// Helper computes repositories and scopes for projects. It is safe for
	// concurrent use; scope composition is serialized across the session.
	Helper struct {
		system     resolution.System
		world      *scope.World
		extensions *extension.Resolver
		realms     *extension.Builder
		projects   *ScopeCache
		logger     *slog.Logger

		// mu serializes CreateProjectScope: building a scope runs component
		// discovery, which mutates the world's registry.
		mu sync.Mutex
	}

	// HelperOption configures a Helper.
	HelperOption func(*helperOptions)

	helperOptions struct {
		logger   *slog.Logger
		versions extension.VersionResolver
		reader   extension.DescriptorReader
	}
)

// NewCaches returns empty session caches.
func NewCaches() *Caches {
	return &Caches{
		Artifacts: recordcache.New[extension.ArtifactsKey, artifact.Set](),
		Realms:    recordcache.New[string, *extension.Realm](),
		Projects:  recordcache.New[string, *ScopeRecord](),
	}
}

// Flush ends the session: every record and registration is dropped.
func (c *Caches) Flush() {
	c.Artifacts.Flush()
	c.Realms.Flush()
	c.Projects.Flush()
}

// WithHelperLogger sets the logger. The default is slog.Default().
func WithHelperLogger(l *slog.Logger) HelperOption {
	return func(o *helperOptions) { o.logger = l }
}

// WithVersionResolver replaces the resolver used for extensions declared
// without a version.
func WithVersionResolver(v extension.VersionResolver) HelperOption {
	return func(o *helperOptions) { o.versions = v }
}

// WithDescriptorReader replaces the reader of extension descriptors.
func WithDescriptorReader(r extension.DescriptorReader) HelperOption {
	return func(o *helperOptions) { o.reader = r }
}

// NewHelper returns a helper resolving through system and creating scopes in
// world. Artifact files are read from fs.
func NewHelper(system resolution.System, world *scope.World, fs afero.Fs, caches *Caches, opts ...HelperOption) *Helper {
	o := helperOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.versions == nil {
		o.versions = extension.LatestReleaseResolver{Ranges: system}
	}
	if o.reader == nil {
		o.reader = extension.ArchiveDescriptorReader{Fs: fs}
	}
	return &Helper{
		system:     system,
		world:      world,
		extensions: extension.NewResolver(o.versions, system, caches.Artifacts, o.logger),
		realms:     extension.NewBuilder(world, o.reader, fs, caches.Realms, o.logger),
		projects:   caches.Projects,
		logger:     o.logger,
	}
}

// CreateArtifactRepositories builds the repositories declared by a
// descriptor, applies the session's mirror, proxy and authentication
// settings to them and merges them with the external repositories according
// to policy. The first declaration that cannot be built fails the call.
func (h *Helper) CreateArtifactRepositories(session *resolution.Session, declared []repository.Declaration, external []*repository.Repository, policy repository.MergePolicy) ([]*repository.Repository, error) {
	internal := make([]*repository.Repository, 0, len(declared))
	for _, decl := range declared {
		r, err := h.system.BuildRepository(decl)
		if err != nil {
			return nil, err
		}
		internal = append(internal, r)
	}

	h.system.InjectMirror(session, internal)
	h.system.InjectProxy(session, internal)
	h.system.InjectAuthentication(session, internal)

	dominant, recessive := policy.Split(internal, external)
	return h.system.EffectiveRepositories(session, repository.Merge(dominant, recessive)), nil
}

// CreateProjectScope composes the scope of a project from the build
// extensions m declares. A project without extensions gets an empty record
// that is not cached. Extension resolution failures are returned as is.
func (h *Helper) CreateProjectScope(ctx context.Context, p *Project, m *model.Model, req *BuildingRequest) (*ScopeRecord, error) {
	plugins := m.ExtensionPlugins()
	if len(plugins) == 0 {
		h.logger.Debug("extension scopes for project " + p.ID() + ": (none)")
		return &ScopeRecord{}, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	owner := p.ID()
	realms := make([]*extension.Realm, 0, len(plugins))
	var public artifact.Set
	for _, plugin := range plugins {
		set, err := h.extensions.Resolve(ctx, owner, plugin, p.PluginRepositories, req.Session)
		if err != nil {
			return nil, err
		}
		realm, err := h.realms.ScopeFor(ctx, owner, set)
		if err != nil {
			return nil, err
		}
		realms = append(realms, realm)
		public = append(public, extension.PublicArtifacts(plugin, set)...)
	}

	ids := make([]string, 0, len(realms))
	for _, r := range realms {
		ids = append(ids, r.Scope.ID())
	}
	key := strings.Join(ids, ",")
	h.logger.Debug("extension scopes for project "+owner+": "+key, "count", len(realms))

	if rec, ok := h.projects.Get(key); ok {
		h.projects.Register(owner, key, rec)
		return rec.Result()
	}

	s, err := h.world.NewProjectScope("project>"+owner, public)
	if err != nil {
		return nil, fmt.Errorf("failed to create the scope of project %s: %w", owner, err)
	}

	var exclusions []string
	for _, r := range realms {
		var exports []string
		if r.Descriptor != nil {
			exports = r.Descriptor.ExportedPackages
			exclusions = append(exclusions, r.Descriptor.ExportedArtifacts...)
		}
		if len(exports) == 0 {
			s.ImportFrom(r.Scope, r.Scope.ID())
			continue
		}
		for _, pkg := range exports {
			s.ImportFrom(r.Scope, pkg)
		}
	}

	record := &ScopeRecord{Scope: s}
	if len(exclusions) > 0 {
		record.Filter = resolution.NewExclusionsFilter(exclusions)
	}

	rec := h.projects.Put(key, record)
	h.projects.Register(owner, key, rec)
	return rec.Result()
}

// SelectScope returns ctx with the scope of p active, or the core scope when
// p has none. Work that looks up components must run under the returned
// context.
func (h *Helper) SelectScope(ctx context.Context, p *Project) context.Context {
	if p.Realm != nil && p.Realm.Scope != nil {
		return scope.WithScope(ctx, p.Realm.Scope)
	}
	return scope.WithScope(ctx, h.world.Core())
}
