// SPDX-License-Identifier: MPL-2.0

package project

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

// descriptorExtension is the extension under which descriptors are published.
const descriptorExtension = "cue"

type (
	// ModelResolverConfig holds the collaborators of a ModelResolver.
	ModelResolverConfig struct {
		System  resolution.System
		Fs      afero.Fs
		Session *resolution.Session
		Trace   *resolution.RequestTrace
		// Context names the purpose of the requests; resolution.ContextProject by default.
		Context string
		// Repositories are the externally supplied repositories.
		Repositories []*repository.Repository
		Policy       repository.MergePolicy
		Pool         *ReactorModelPool
	}

	// ModelResolver resolves the descriptors a project refers to by
	// coordinates, accumulating the repositories they declare.
	//
	// A ModelResolver is not safe for concurrent use: every independent
	// walk over a descriptor hierarchy uses its own copy from NewCopy.
	ModelResolver struct {
		system  resolution.System
		fs      afero.Fs
		session *resolution.Session
		trace   *resolution.RequestTrace
		context string
		pool    *ReactorModelPool
		repos   *repository.SessionList
	}
)

// NewModelResolver returns a resolver starting from the external repositories.
func NewModelResolver(cfg ModelResolverConfig) *ModelResolver {
	if cfg.Context == "" {
		cfg.Context = resolution.ContextProject
	}
	if cfg.Pool == nil {
		cfg.Pool = NewReactorModelPool()
	}
	agg := resolution.SessionAggregator(cfg.System, cfg.Session)
	return &ModelResolver{
		system:  cfg.System,
		fs:      cfg.Fs,
		session: cfg.Session,
		trace:   cfg.Trace,
		context: cfg.Context,
		pool:    cfg.Pool,
		repos:   repository.NewSessionList(agg, cfg.Policy, cfg.Repositories),
	}
}

// ResolveModel returns the source of the descriptor with the given
// coordinates. Modules of the current build are served from the reactor
// pool without touching any repository.
func (r *ModelResolver) ResolveModel(ctx context.Context, groupID artifact.GroupID, artifactID artifact.ArtifactID, v artifact.Version) (model.Source, error) {
	if src, ok := r.pool.Get(groupID, artifactID, v); ok {
		return src, nil
	}

	coords := artifact.New(groupID, artifactID, v).WithExtension(descriptorExtension)
	res, err := r.system.ResolveArtifact(ctx, r.session, resolution.ArtifactRequest{
		Artifact:     coords,
		Repositories: r.repos.Effective(),
		Context:      r.context,
		Trace:        r.trace,
	})
	if err != nil {
		return nil, &UnresolvableModelError{GroupID: groupID, ArtifactID: artifactID, Version: v, Reason: err.Error(), Cause: err}
	}
	return model.FileSource{Fs: r.fs, Path: res.Artifact.File}, nil
}

// ResolveParent resolves the descriptor parent refers to. A version range
// must match a published version and must have an upper bound; on success
// parent.Version is rewritten to the highest matching version.
func (r *ModelResolver) ResolveParent(ctx context.Context, parent *model.Parent) (model.Source, error) {
	unresolvable := func(reason string, cause error) error {
		return &UnresolvableModelError{
			GroupID: parent.GroupID, ArtifactID: parent.ArtifactID, Version: parent.Version,
			Reason: reason, Cause: cause,
		}
	}

	res, err := r.system.ResolveVersionRange(ctx, r.session, resolution.VersionRangeRequest{
		Artifact:     artifact.New(parent.GroupID, parent.ArtifactID, parent.Version).WithExtension(descriptorExtension),
		Repositories: r.repos.Effective(),
		Context:      r.context,
		Trace:        r.trace,
	})
	if err != nil {
		return nil, unresolvable(err.Error(), err)
	}

	highest := res.HighestVersion()
	if highest == nil {
		return nil, unresolvable(fmt.Sprintf("no versions matched the requested parent version range %q", parent.Version), nil)
	}
	if res.Constraint != nil && res.Constraint.IsRange() && !res.Constraint.HasUpperBound() {
		return nil, unresolvable(fmt.Sprintf("the requested parent version range %q does not specify an upper bound", parent.Version), nil)
	}

	parent.Version = artifact.Version(highest.String())
	return r.ResolveModel(ctx, parent.GroupID, parent.ArtifactID, parent.Version)
}

// AddRepository records a repository declared by a resolved descriptor.
// A repository whose id is already known is ignored unless replace is set,
// in which case the new declaration supersedes the old one.
func (r *ModelResolver) AddRepository(decl repository.Declaration, replace bool) error {
	repo, err := r.system.BuildRepository(decl)
	if err != nil {
		return err
	}
	r.repos.Add(repo, replace)
	return nil
}

// AddRepositories records the repositories declared by m, keeping the first
// declaration of every id.
func (r *ModelResolver) AddRepositories(m *model.Model) error {
	for _, decl := range m.Repositories {
		if err := r.AddRepository(decl, false); err != nil {
			return err
		}
	}
	return nil
}

// NewCopy returns a resolver with its own repository lists that shares the
// session, trace, resolution system and reactor pool of r.
func (r *ModelResolver) NewCopy() *ModelResolver {
	c := *r
	c.repos = r.repos.Clone()
	return &c
}

// Repositories returns the effective repositories, in resolution order.
func (r *ModelResolver) Repositories() []*repository.Repository { return r.repos.Effective() }

// DeclaredRepositories returns the repositories added through AddRepository
// that the merge policy keeps on the descriptor side.
func (r *ModelResolver) DeclaredRepositories() []*repository.Repository { return r.repos.Declared() }
