// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"log/slog"
	"strings"

	"github.com/invowk/forge/internal/recordcache"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

type (
	// ArtifactsKey identifies a resolved extension artifact set: the
	// extension coordinates, its extra dependencies, the repositories it was
	// resolved from and the session.
	ArtifactsKey struct {
		Plugin       string
		Dependencies string
		Repositories string
		Session      string
	}

	// ArtifactsCache caches resolved extension artifact sets.
	ArtifactsCache = recordcache.Cache[ArtifactsKey, artifact.Set]

	// Resolver resolves extensions to their artifact sets. It is safe for
	// concurrent use.
	Resolver struct {
		versions     VersionResolver
		dependencies resolution.DependencyResolver
		cache        *ArtifactsCache
		logger       *slog.Logger
	}
)

// NewArtifactsKey builds the cache key of an extension resolved from repos
// within session. plugin must carry a concrete version.
func NewArtifactsKey(plugin artifact.Coordinates, dependencies []artifact.Coordinates, repos []*repository.Repository, session *resolution.Session) ArtifactsKey {
	deps := make([]string, 0, len(dependencies))
	for _, d := range dependencies {
		deps = append(deps, d.String())
	}
	rs := make([]string, 0, len(repos))
	for _, r := range repos {
		rs = append(rs, string(r.ID)+"="+r.URL)
	}
	var sessionID string
	if session != nil {
		sessionID = session.ID
	}
	return ArtifactsKey{
		Plugin:       plugin.String(),
		Dependencies: strings.Join(deps, ","),
		Repositories: strings.Join(rs, ","),
		Session:      sessionID,
	}
}

// NewResolver returns a resolver storing its results in cache.
func NewResolver(versions VersionResolver, dependencies resolution.DependencyResolver, cache *ArtifactsCache, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		versions:     versions,
		dependencies: dependencies,
		cache:        cache,
		logger:       logger,
	}
}

// Resolve returns the artifact set of plugin, root first, resolving its
// version first when it has none. owner is registered as depending on the
// cached set. A failed version or artifact resolution is cached and the same
// error is returned for every later request with the same key.
func (r *Resolver) Resolve(ctx context.Context, owner string, plugin model.Plugin, repos []*repository.Repository, session *resolution.Session) (artifact.Set, error) {
	coords := plugin.Coordinates()
	if coords.Version.IsEmpty() {
		// Failures are kept under the versionless coordinates, which no
		// resolved artifact set is ever keyed by.
		versionKey := NewArtifactsKey(coords, nil, repos, session)
		if rec, ok := r.cache.Get(versionKey); ok {
			r.cache.Register(owner, versionKey, rec)
			return rec.Result()
		}
		v, err := r.versions.ResolveVersion(ctx, session, coords, repos)
		if err != nil {
			rec := r.cache.PutFailure(versionKey, err)
			r.cache.Register(owner, versionKey, rec)
			return rec.Result()
		}
		coords = coords.WithVersion(v)
		r.logger.Debug("resolved extension version", "extension", coords.ID())
	}

	deps := make([]artifact.Coordinates, 0, len(plugin.Dependencies))
	for _, d := range plugin.Dependencies {
		deps = append(deps, d.Coordinates())
	}

	key := NewArtifactsKey(coords, deps, repos, session)
	if rec, ok := r.cache.Get(key); ok {
		r.cache.Register(owner, key, rec)
		return rec.Result()
	}

	var rec *recordcache.Record[artifact.Set]
	root, err := r.dependencies.ResolveDependencies(ctx, session, resolution.CollectRequest{
		Root:         coords,
		Dependencies: deps,
		Repositories: repos,
		Context:      resolution.ContextPlugin,
		Trace:        resolution.NewTrace(owner).Child(coords),
	})
	if err != nil {
		rec = r.cache.PutFailure(key, &PluginResolutionError{Plugin: coords, Cause: err})
	} else {
		rec = r.cache.Put(key, root.PreorderArtifacts())
	}
	r.cache.Register(owner, key, rec)
	return rec.Result()
}
