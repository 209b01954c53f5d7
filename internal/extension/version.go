// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"errors"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
	"github.com/invowk/forge/pkg/version"
)

// anyVersion is the constraint used to list every published version.
const anyVersion artifact.Version = "[0,)"

type (
	// VersionResolver determines the version of an extension declared without one.
	VersionResolver interface {
		ResolveVersion(ctx context.Context, session *resolution.Session, plugin artifact.Coordinates, repos []*repository.Repository) (artifact.Version, error)
	}

	// LatestReleaseResolver picks the highest published release, or the
	// highest snapshot when nothing else is published.
	LatestReleaseResolver struct {
		Ranges resolution.VersionRangeResolver
	}
)

var errNoVersions = errors.New("no published versions")

// ResolveVersion implements VersionResolver.
func (r LatestReleaseResolver) ResolveVersion(ctx context.Context, session *resolution.Session, plugin artifact.Coordinates, repos []*repository.Repository) (artifact.Version, error) {
	result, err := r.Ranges.ResolveVersionRange(ctx, session, resolution.VersionRangeRequest{
		Artifact:     plugin.WithVersion(anyVersion),
		Repositories: repos,
		Context:      resolution.ContextPlugin,
	})
	if err != nil {
		return "", &VersionResolutionError{Plugin: plugin, Repositories: repository.IDs(repos), Cause: err}
	}

	var best *version.Version
	for _, v := range result.Versions {
		if !v.IsSnapshot() {
			best = v
		}
	}
	if best == nil {
		best = result.HighestVersion()
	}
	if best == nil {
		return "", &VersionResolutionError{Plugin: plugin, Repositories: repository.IDs(repos), Cause: errNoVersions}
	}
	return artifact.Version(best.String()), nil
}
