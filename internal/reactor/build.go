// SPDX-License-Identifier: MPL-2.0

package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/forge/internal/extension"
	"github.com/invowk/forge/internal/project"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

// ParticipantRole is the component role of build lifecycle participants.
const ParticipantRole = "org.forge.api.lifecycle.Participant"

// maxLineage bounds a parent chain so a cycle between published descriptors
// cannot loop forever.
const maxLineage = 64

type (
	// Builder prepares the projects of a reactor.
	Builder struct {
		System  resolution.System
		Fs      afero.Fs
		World   *scope.World
		Helper  *project.Helper
		Request *project.BuildingRequest
		// MaxParallel bounds the projects prepared at once; values below 1 mean 1.
		MaxParallel int
		Logger      *slog.Logger
	}

	// Result is the outcome of preparing one project.
	Result struct {
		Project *project.Project
		// Participants are the lifecycle participants visible from the
		// project's scope.
		Participants []scope.Registration
		Err          error
	}

	// Results are the outcomes of a build in reactor order.
	Results []Result
)

// Err joins the errors of every failed project, or returns nil.
func (rs Results) Err() error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Project.ID(), r.Err))
		}
	}
	return errors.Join(errs...)
}

// Build prepares every project of r concurrently. A project that fails does
// not stop the others; its error is recorded in its Result. A failure to
// discover the components of an extension aborts the build instead and is
// returned, as is the error of a ctx that ends before the build completes.
func (b *Builder) Build(ctx context.Context, r *Reactor) (Results, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := project.NewModelResolver(project.ModelResolverConfig{
		System:       b.System,
		Fs:           b.Fs,
		Session:      b.Request.Session,
		Trace:        resolution.NewTrace("reactor"),
		Repositories: b.Request.RemoteRepositories,
		Policy:       b.Request.Policy,
		Pool:         r.Pool(),
	})

	if err := b.pinPublishedParents(ctx, r, base); err != nil {
		return nil, err
	}
	ordered, err := r.Order()
	if err != nil {
		return nil, err
	}

	results := make(Results, len(ordered))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(b.MaxParallel, 1))
	for i, p := range ordered {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				results[i] = Result{Project: p, Err: err}
				return err
			}
			results[i] = b.prepare(egctx, r, base.NewCopy(), p)
			switch err := results[i].Err; {
			case errors.Is(err, extension.ErrDiscovery):
				return fmt.Errorf("%s: %w", p.ID(), err)
			case err != nil:
				logger.Error("failed to prepare project", "project", p.ID(), "error", err)
			default:
				logger.Debug("prepared project", "project", p.ID())
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// pinPublishedParents resolves the parent version ranges that no module of
// the reactor satisfies, rewrites them to the highest published version and
// re-keys the modules whose coordinates change. A range that cannot be
// resolved is left as is; preparing its project reports the failure.
func (b *Builder) pinPublishedParents(ctx context.Context, r *Reactor, base *project.ModelResolver) error {
	pinned := false
	for _, p := range r.modules {
		parent := p.Model.Parent
		if parent == nil || !isRange(parent.Version) {
			continue
		}
		if _, ok := r.Match(parent.GroupID, parent.ArtifactID, parent.Version); ok {
			continue
		}
		resolver := base.NewCopy()
		if err := resolver.AddRepositories(p.Model); err != nil {
			continue
		}
		if _, err := resolver.ResolveParent(ctx, parent); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		pinned = true
	}
	if !pinned {
		return nil
	}
	r.pinReactorParents()
	return r.reindex()
}

func (b *Builder) prepare(ctx context.Context, r *Reactor, resolver *project.ModelResolver, p *project.Project) Result {
	res := Result{Project: p}

	lineage, err := b.lineage(ctx, r, resolver, p.Model)
	if err != nil {
		res.Err = err
		return res
	}
	p.Lineage = lineage

	chain := append([]*model.Model{p.Model}, lineage...)
	remote, plugin := declaredRepositories(chain)
	if p.RemoteRepositories, err = b.Helper.CreateArtifactRepositories(b.Request.Session, remote, b.Request.RemoteRepositories, b.Request.Policy); err != nil {
		res.Err = err
		return res
	}
	if p.PluginRepositories, err = b.Helper.CreateArtifactRepositories(b.Request.Session, plugin, b.Request.PluginRepositories, b.Request.Policy); err != nil {
		res.Err = err
		return res
	}

	record, err := b.Helper.CreateProjectScope(ctx, p, p.Model, b.Request)
	if err != nil {
		res.Err = err
		return res
	}
	p.Realm = record

	res.Participants = b.World.Components(b.Helper.SelectScope(ctx, p), ParticipantRole)
	return res
}

// lineage walks the parents of m, nearest first. Parents that are modules of
// the reactor are taken from it; others are resolved through resolver, which
// accumulates the repositories every descriptor declares.
func (b *Builder) lineage(ctx context.Context, r *Reactor, resolver *project.ModelResolver, m *model.Model) ([]*model.Model, error) {
	if err := resolver.AddRepositories(m); err != nil {
		return nil, err
	}

	var out []*model.Model
	seen := map[string]struct{}{m.ID(): {}}
	shared := true
	for cur := m; cur.Parent != nil; {
		if len(out) == maxLineage {
			return nil, fmt.Errorf("parent chain of %s is longer than %d descriptors", m.ID(), maxLineage)
		}
		// Reactor modules are shared between goroutines and had their parents
		// pinned before the build. Descriptors loaded here belong to this walk.
		parent := cur.Parent
		if shared {
			p := *cur.Parent
			parent = &p
		}

		var next *model.Model
		if up, ok := r.Match(parent.GroupID, parent.ArtifactID, parent.Version); ok {
			next = up.Model
			parent.Version = up.Model.EffectiveVersion()
			shared = true
		} else {
			src, err := resolver.ResolveParent(ctx, parent)
			if err != nil {
				return nil, err
			}
			if next, err = model.Load(src); err != nil {
				return nil, err
			}
			shared = false
		}

		if _, dup := seen[next.ID()]; dup {
			return nil, fmt.Errorf("%w: %s inherits from itself", ErrCycle, next.ID())
		}
		seen[next.ID()] = struct{}{}
		if err := resolver.AddRepositories(next); err != nil {
			return nil, err
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// declaredRepositories collects the repository and plugin repository
// declarations of a descriptor chain, nearest first. The first declaration
// of an id wins.
func declaredRepositories(chain []*model.Model) (remote, plugin []repository.Declaration) {
	seenRemote := make(map[string]struct{})
	seenPlugin := make(map[string]struct{})
	for _, m := range chain {
		for _, d := range m.Repositories {
			if _, dup := seenRemote[d.ID]; !dup {
				seenRemote[d.ID] = struct{}{}
				remote = append(remote, d)
			}
		}
		for _, d := range m.PluginRepositories {
			if _, dup := seenPlugin[d.ID]; !dup {
				seenPlugin[d.ID] = struct{}{}
				plugin = append(plugin, d)
			}
		}
	}
	return remote, plugin
}
