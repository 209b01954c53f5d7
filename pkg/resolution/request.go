// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/version"
)

// Request contexts name the purpose of a request.
const (
	ContextProject = "project"
	ContextPlugin  = "plugin"
)

type (
	// ArtifactRequest asks for the file of a single artifact.
	ArtifactRequest struct {
		Artifact     artifact.Coordinates
		Repositories []*repository.Repository
		Context      string
		Trace        *RequestTrace
	}

	// ArtifactResult is a resolved artifact and the repository that served it.
	ArtifactResult struct {
		Request    ArtifactRequest
		Artifact   artifact.Artifact
		Repository *repository.Repository
	}

	// VersionRangeRequest asks for the published versions matching the
	// version of Artifact, interpreted as a constraint.
	VersionRangeRequest struct {
		Artifact     artifact.Coordinates
		Repositories []*repository.Repository
		Context      string
		Trace        *RequestTrace
	}

	// VersionRangeResult lists matching versions in ascending order.
	VersionRangeResult struct {
		Request    VersionRangeRequest
		Constraint *version.Constraint
		Versions   []*version.Version
		// Repositories maps a version's string form to the repository it was found in.
		Repositories map[string]*repository.Repository
	}

	// CollectRequest asks for the dependency graph rooted at Root.
	CollectRequest struct {
		Root artifact.Coordinates
		// Dependencies are extra direct dependencies of Root, collected
		// before the ones Root declares.
		Dependencies []artifact.Coordinates
		Repositories []*repository.Repository
		Context      string
		Trace        *RequestTrace
		// Filter, when set, prunes nodes (and their subtrees) it rejects.
		Filter DependencyFilter
	}
)

// HighestVersion returns the last version of the result, or nil.
func (r *VersionRangeResult) HighestVersion() *version.Version {
	if len(r.Versions) == 0 {
		return nil
	}
	return r.Versions[len(r.Versions)-1]
}

// RepositoryFor returns the repository that published v, or nil.
func (r *VersionRangeResult) RepositoryFor(v *version.Version) *repository.Repository {
	if v == nil || r.Repositories == nil {
		return nil
	}
	return r.Repositories[v.String()]
}
