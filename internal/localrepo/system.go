// SPDX-License-Identifier: MPL-2.0

package localrepo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
	"github.com/invowk/forge/pkg/version"
)

// localRepositoryID names the session's local repository in results and errors.
const localRepositoryID repository.ID = "local"

type (
	// System resolves artifacts from file repositories on an afero.Fs.
	// It is safe for concurrent use.
	System struct {
		fs     afero.Fs
		logger *slog.Logger
	}

	// Option configures a System.
	Option func(*System)
)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		s.logger = l
	}
}

// New returns a system reading repositories from fsys.
func New(fsys afero.Fs, opts ...Option) *System {
	s := &System{fs: fsys, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fs returns the filesystem the system reads from.
func (s *System) Fs() afero.Fs { return s.fs }

// candidates returns the repositories to search for c: the session's local
// repository first, then every enabled file repository of repos.
func (s *System) candidates(session *resolution.Session, repos []*repository.Repository, c artifact.Coordinates) []*repository.Repository {
	var out []*repository.Repository
	if session != nil && session.LocalRepository != "" {
		out = append(out, &repository.Repository{
			ID:       localRepositoryID,
			URL:      "file://" + filepath.ToSlash(session.LocalRepository),
			Layout:   repository.LayoutDefault,
			Releases: repository.Policy{Enabled: true}, Snapshots: repository.Policy{Enabled: true},
		})
	}

	snapshot := false
	if v, err := version.Parse(string(c.Version)); err == nil {
		snapshot = v.IsSnapshot()
	}
	for _, r := range repos {
		if r.Protocol() != "file" {
			if session != nil && session.Offline {
				s.logger.Debug("skipping repository in offline mode", "repository", r.ID)
			} else {
				s.logger.Debug("skipping repository with unsupported protocol", "repository", r.ID, "protocol", r.Protocol())
			}
			continue
		}
		if snapshot && !r.Snapshots.Enabled || !snapshot && !r.Releases.Enabled {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ResolveArtifact implements resolution.ArtifactResolver.
func (s *System) ResolveArtifact(ctx context.Context, session *resolution.Session, req resolution.ArtifactRequest) (*resolution.ArtifactResult, error) {
	c := req.Artifact
	searched := make([]repository.ID, 0, len(req.Repositories)+1)
	for _, r := range s.candidates(session, req.Repositories, c) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		searched = append(searched, r.ID)
		file := artifactPath(r, c)
		info, err := s.fs.Stat(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &resolution.ArtifactResolutionError{Artifact: c, Repositories: searched, Cause: err}
		}
		if info.IsDir() {
			continue
		}
		return &resolution.ArtifactResult{
			Request:    req,
			Artifact:   artifact.Artifact{Coordinates: c, File: file},
			Repository: r,
		}, nil
	}
	return nil, &resolution.ArtifactResolutionError{Artifact: c, Repositories: searched}
}

// ResolveVersionRange implements resolution.VersionRangeResolver. A soft
// version resolves to itself without looking at any repository; a range
// resolves to the union of the versions published in every repository.
func (s *System) ResolveVersionRange(ctx context.Context, session *resolution.Session, req resolution.VersionRangeRequest) (*resolution.VersionRangeResult, error) {
	c, err := version.ParseConstraint(string(req.Artifact.Version))
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint for %s: %w", req.Artifact.VersionlessKey(), err)
	}

	result := &resolution.VersionRangeResult{Request: req, Constraint: c, Repositories: make(map[string]*repository.Repository)}
	if !c.IsRange() {
		result.Versions = []*version.Version{c.Version}
		return result, nil
	}

	var found []*version.Version
	for _, r := range s.candidates(session, req.Repositories, req.Artifact.WithVersion("")) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, v := range s.publishedVersions(r, req.Artifact) {
			if _, dup := result.Repositories[v.String()]; dup {
				continue
			}
			result.Repositories[v.String()] = r
			found = append(found, v)
		}
	}
	result.Versions = c.Filter(found)
	return result, nil
}

// publishedVersions lists the versions of c found in r. In the legacy layout
// versions are read from the file names.
func (s *System) publishedVersions(r *repository.Repository, c artifact.Coordinates) []*version.Version {
	var names []string
	if r.Layout == repository.LayoutLegacy {
		names = legacyVersions(s.fs, r, c)
	} else {
		entries, err := afero.ReadDir(s.fs, versionsDir(r, c))
		if err != nil {
			return nil
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}

	var out []*version.Version
	for _, name := range names {
		v, err := version.Parse(name)
		if err != nil {
			s.logger.Debug("ignoring unparseable version", "artifact", c.VersionlessKey(), "version", name)
			continue
		}
		out = append(out, v)
	}
	return out
}

// BuildRepository implements resolution.RepositoryManager.
func (s *System) BuildRepository(decl repository.Declaration) (*repository.Repository, error) {
	return repository.Build(decl)
}

// InjectMirror implements resolution.RepositoryManager.
func (s *System) InjectMirror(session *resolution.Session, repos []*repository.Repository) {
	session.Settings.InjectMirrors(repos)
}

// InjectProxy implements resolution.RepositoryManager.
func (s *System) InjectProxy(session *resolution.Session, repos []*repository.Repository) {
	session.Settings.InjectProxies(repos)
}

// InjectAuthentication implements resolution.RepositoryManager.
func (s *System) InjectAuthentication(session *resolution.Session, repos []*repository.Repository) {
	session.Settings.InjectAuthentication(repos)
}

// EffectiveRepositories implements resolution.RepositoryManager.
func (s *System) EffectiveRepositories(_ *resolution.Session, repos []*repository.Repository) []*repository.Repository {
	return repository.Effective(repos)
}

// AggregateRepositories implements resolution.RepositoryManager.
func (s *System) AggregateRepositories(session *resolution.Session, dominant, recessive []*repository.Repository, recessiveIsRaw bool) []*repository.Repository {
	return session.Settings.AggregateRepositories(dominant, recessive, recessiveIsRaw)
}
