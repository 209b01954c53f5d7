// SPDX-License-Identifier: MPL-2.0

package localrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/resolution"
)

// collector walks descriptors depth-first. The first occurrence of a
// groupId:artifactId wins; later ones, including cycles back to an
// ancestor, are dropped.
type collector struct {
	sys     *System
	session *resolution.Session
	req     resolution.CollectRequest
	seen    map[string]struct{}
}

// ResolveDependencies implements resolution.DependencyResolver. Only
// non-optional compile and runtime dependencies are followed past the root;
// the root's own optional dependencies are kept. Every node of the returned
// graph has its file resolved.
func (s *System) ResolveDependencies(ctx context.Context, session *resolution.Session, req resolution.CollectRequest) (*resolution.DependencyNode, error) {
	c := &collector{sys: s, session: session, req: req, seen: make(map[string]struct{})}

	root, err := c.resolveFile(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	node := &resolution.DependencyNode{Artifact: root}
	c.seen[req.Root.VersionlessKey()] = struct{}{}

	var direct []model.Dependency
	for _, extra := range req.Dependencies {
		direct = append(direct, model.Dependency{
			GroupID: extra.GroupID, ArtifactID: extra.ArtifactID, Version: extra.Version,
			Type: extra.Extension, Classifier: extra.Classifier,
		})
	}
	declared, err := c.descriptor(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	if declared != nil {
		direct = append(direct, declared.Dependencies...)
	}

	if err := c.children(ctx, node, direct, nil, []*resolution.DependencyNode{node}, true); err != nil {
		return nil, err
	}
	return node, nil
}

// children appends the accepted dependencies of parent. exclusions are the
// exclusion lists inherited from the path to parent; parents lists the path,
// nearest first.
func (c *collector) children(ctx context.Context, parent *resolution.DependencyNode, deps []model.Dependency, exclusions []model.Dependency, parents []*resolution.DependencyNode, direct bool) error {
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.follows(dep, direct) || excluded(exclusions, dep) {
			continue
		}

		coords, err := c.concrete(ctx, dep.Coordinates())
		if err != nil {
			return err
		}
		key := coords.VersionlessKey()
		if _, dup := c.seen[key]; dup {
			continue
		}

		node := &resolution.DependencyNode{
			Artifact: artifact.Artifact{Coordinates: coords},
			Scope:    dep.EffectiveScope(),
			Optional: dep.Optional,
		}
		if c.req.Filter != nil && !c.req.Filter.Accept(node, parents) {
			continue
		}
		c.seen[key] = struct{}{}

		resolved, err := c.resolveFile(ctx, coords)
		if err != nil {
			return err
		}
		node.Artifact = resolved
		parent.Children = append(parent.Children, node)

		m, err := c.descriptor(ctx, coords)
		if err != nil {
			return err
		}
		if m == nil {
			continue
		}
		inherited := exclusions
		if len(dep.Exclusions) > 0 {
			inherited = append(append([]model.Dependency(nil), exclusions...), dep)
		}
		path := append([]*resolution.DependencyNode{node}, parents...)
		if err := c.children(ctx, node, m.Dependencies, inherited, path, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) follows(dep model.Dependency, direct bool) bool {
	if dep.Optional && !direct {
		return false
	}
	switch dep.EffectiveScope() {
	case model.ScopeCompile, model.ScopeRuntime:
		return true
	default:
		return false
	}
}

func excluded(exclusions []model.Dependency, dep model.Dependency) bool {
	for _, ex := range exclusions {
		if ex.Excludes(dep.GroupID, dep.ArtifactID) {
			return true
		}
	}
	return false
}

// concrete replaces a range version by the highest matching published version.
func (c *collector) concrete(ctx context.Context, coords artifact.Coordinates) (artifact.Coordinates, error) {
	if coords.Version.IsEmpty() {
		return coords, fmt.Errorf("dependency %s has no version", coords.VersionlessKey())
	}
	res, err := c.sys.ResolveVersionRange(ctx, c.session, resolution.VersionRangeRequest{
		Artifact:     coords,
		Repositories: c.req.Repositories,
		Context:      c.req.Context,
		Trace:        c.req.Trace,
	})
	if err != nil {
		return coords, err
	}
	if !res.Constraint.IsRange() {
		return coords, nil
	}
	v := res.HighestVersion()
	if v == nil {
		return coords, fmt.Errorf("no version of %s matches %s", coords.VersionlessKey(), res.Constraint)
	}
	return coords.WithVersion(artifact.Version(v.String())), nil
}

func (c *collector) resolveFile(ctx context.Context, coords artifact.Coordinates) (artifact.Artifact, error) {
	res, err := c.sys.ResolveArtifact(ctx, c.session, resolution.ArtifactRequest{
		Artifact:     coords,
		Repositories: c.req.Repositories,
		Context:      c.req.Context,
		Trace:        c.req.Trace,
	})
	if err != nil {
		return artifact.Artifact{}, err
	}
	return res.Artifact, nil
}

// descriptor loads the build descriptor published next to coords. A missing
// descriptor yields nil: the artifact is treated as having no dependencies.
func (c *collector) descriptor(ctx context.Context, coords artifact.Coordinates) (*model.Model, error) {
	dc := coords.WithExtension("cue")
	dc.Classifier = ""
	a, err := c.resolveFile(ctx, dc)
	if errors.Is(err, resolution.ErrArtifactNotFound) {
		c.sys.logger.Debug("build descriptor is missing, no dependency information available", "artifact", coords.ID())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := model.ReadFile(c.sys.fs, a.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read build descriptor of %s: %w", coords.ID(), err)
	}
	return m, nil
}
