// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"sync/atomic"

	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
	"github.com/invowk/forge/pkg/version"
)

// countingDependencies returns a fixed graph (or error) and counts requests.
type countingDependencies struct {
	calls    atomic.Int32
	graph    func(req resolution.CollectRequest) *resolution.DependencyNode
	err      error
	requests chan resolution.CollectRequest
}

func (c *countingDependencies) ResolveDependencies(_ context.Context, _ *resolution.Session, req resolution.CollectRequest) (*resolution.DependencyNode, error) {
	c.calls.Add(1)
	if c.requests != nil {
		c.requests <- req
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.graph(req), nil
}

// countingRanges answers every range request with versions.
type countingRanges struct {
	calls    atomic.Int32
	versions []string
	err      error
}

func (c *countingRanges) ResolveVersionRange(_ context.Context, _ *resolution.Session, req resolution.VersionRangeRequest) (*resolution.VersionRangeResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	res := &resolution.VersionRangeResult{Request: req}
	for _, v := range c.versions {
		res.Versions = append(res.Versions, version.MustParse(v))
	}
	version.Sort(res.Versions)
	return res, nil
}

// countingHost wraps a real world, counting scope creation and optionally
// failing discovery.
type countingHost struct {
	world        *scope.World
	created      atomic.Int32
	discovered   atomic.Int32
	discoveryErr error
}

func (h *countingHost) NewExtensionScope(id string, artifacts artifact.Set) (*scope.Scope, error) {
	h.created.Add(1)
	return h.world.NewExtensionScope(id, artifacts)
}

func (h *countingHost) Discover(ctx context.Context, s *scope.Scope) error {
	h.discovered.Add(1)
	if h.discoveryErr != nil {
		return h.discoveryErr
	}
	return h.world.Discover(ctx, s)
}

func leaf(c artifact.Coordinates, file string) *resolution.DependencyNode {
	return &resolution.DependencyNode{Artifact: artifact.Artifact{Coordinates: c, File: file}}
}

func central() []*repository.Repository {
	return []*repository.Repository{repository.MustBuild(repository.Declaration{ID: "central", URL: "file:///srv/central"})}
}
