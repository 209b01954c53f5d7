// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
)

// ErrArtifactNotFound is matched by ArtifactResolutionError.
var ErrArtifactNotFound = errors.New("artifact not found")

type (
	// ArtifactResolver resolves a single artifact to a local file.
	ArtifactResolver interface {
		ResolveArtifact(ctx context.Context, session *Session, req ArtifactRequest) (*ArtifactResult, error)
	}

	// VersionRangeResolver lists the published versions matching a constraint.
	VersionRangeResolver interface {
		ResolveVersionRange(ctx context.Context, session *Session, req VersionRangeRequest) (*VersionRangeResult, error)
	}

	// DependencyResolver collects the dependency graph of an artifact and
	// resolves the file of every node.
	DependencyResolver interface {
		ResolveDependencies(ctx context.Context, session *Session, req CollectRequest) (*DependencyNode, error)
	}

	// RepositoryManager builds repositories and applies session settings to them.
	RepositoryManager interface {
		BuildRepository(decl repository.Declaration) (*repository.Repository, error)
		InjectMirror(session *Session, repos []*repository.Repository)
		InjectProxy(session *Session, repos []*repository.Repository)
		InjectAuthentication(session *Session, repos []*repository.Repository)
		EffectiveRepositories(session *Session, repos []*repository.Repository) []*repository.Repository
		AggregateRepositories(session *Session, dominant, recessive []*repository.Repository, recessiveIsRaw bool) []*repository.Repository
	}

	// System is the complete dependency-resolution subsystem.
	System interface {
		ArtifactResolver
		VersionRangeResolver
		DependencyResolver
		RepositoryManager
	}

	// ArtifactResolutionError reports an artifact that no repository could serve.
	ArtifactResolutionError struct {
		Artifact     artifact.Coordinates
		Repositories []repository.ID
		Cause        error
	}
)

// Error implements the error interface.
func (e *ArtifactResolutionError) Error() string {
	ids := make([]string, 0, len(e.Repositories))
	for _, id := range e.Repositories {
		ids = append(ids, string(id))
	}
	msg := fmt.Sprintf("could not find artifact %s in [%s]", e.Artifact, strings.Join(ids, ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is ErrArtifactNotFound.
func (e *ArtifactResolutionError) Is(target error) bool { return target == ErrArtifactNotFound }

// Unwrap returns the underlying cause, if any.
func (e *ArtifactResolutionError) Unwrap() error { return e.Cause }

// SessionAggregator returns an aggregator that delegates to m within session.
func SessionAggregator(m RepositoryManager, session *Session) repository.Aggregator {
	return repository.AggregatorFunc(func(dominant, recessive []*repository.Repository, recessiveIsRaw bool) []*repository.Repository {
		return m.AggregateRepositories(session, dominant, recessive, recessiveIsRaw)
	})
}
