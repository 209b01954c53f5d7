// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/recordcache"
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
)

// LegacyUtilityArtifactID is the utility library that single-artifact
// extensions of the old plugin format shipped with.
const LegacyUtilityArtifactID artifact.ArtifactID = "forge-utils"

type (
	// Host creates extension scopes and discovers the components inside them.
	Host interface {
		NewExtensionScope(id string, artifacts artifact.Set) (*scope.Scope, error)
		Discover(ctx context.Context, s *scope.Scope) error
	}

	// Realm is a built extension scope with its export descriptor.
	Realm struct {
		Scope     *scope.Scope
		Artifacts artifact.Set
		// Descriptor is nil when the extension declares none.
		Descriptor *Descriptor
	}

	// RealmCache caches built extension realms by ScopeKey.
	RealmCache = recordcache.Cache[string, *Realm]

	// Builder builds extension realms. It is safe for concurrent use, but
	// callers serialize realm creation across the session.
	Builder struct {
		host   Host
		reader DescriptorReader
		fs     afero.Fs
		cache  *RealmCache
		logger *slog.Logger
	}
)

// NewBuilder returns a builder reading artifact metadata from fs.
func NewBuilder(host Host, reader DescriptorReader, fs afero.Fs, cache *RealmCache, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{host: host, reader: reader, fs: fs, cache: cache, logger: logger}
}

// ScopeKey identifies an artifact set by the coordinates, path, size and
// modification time of each artifact, so a rebuilt file yields a new key.
func ScopeKey(fs afero.Fs, artifacts artifact.Set) string {
	var sb strings.Builder
	for i, a := range artifacts {
		if i > 0 {
			sb.WriteByte(';')
		}
		var size, mtime int64
		if info, err := fs.Stat(a.File); err == nil {
			size, mtime = info.Size(), info.ModTime().UnixNano()
		}
		fmt.Fprintf(&sb, "%s|%s|%d|%d", a.Coordinates, a.File, size, mtime)
	}
	return sb.String()
}

// ScopeFor returns the realm of an extension artifact set, building it on
// the first request. owner is registered as depending on it.
//
// A failure to discover the extension's components is returned as a
// *DiscoveryError and nothing is cached. An unreadable descriptor is logged
// and the realm is built without one.
func (b *Builder) ScopeFor(ctx context.Context, owner string, artifacts artifact.Set) (*Realm, error) {
	key := ScopeKey(b.fs, artifacts)
	if rec, ok := b.cache.Get(key); ok {
		b.cache.Register(owner, key, rec)
		return rec.Result()
	}

	root, ok := artifacts.Root()
	if !ok {
		return nil, fmt.Errorf("extension of %s has no artifacts", owner)
	}

	s, err := b.host.NewExtensionScope("extension>"+root.Coordinates.ID(), artifacts)
	if err != nil {
		return nil, &DiscoveryError{Plugin: root.Coordinates, Scope: "extension>" + root.Coordinates.ID(), Cause: err}
	}
	if err := b.host.Discover(ctx, s); err != nil {
		return nil, &DiscoveryError{Plugin: root.Coordinates, Scope: s.ID(), Cause: err}
	}

	descriptor, err := b.reader.Read(root.File)
	if err != nil {
		b.logger.Error("failed to read extension descriptor", "extension", root.Coordinates.ID(), "file", root.File, "error", err)
		descriptor = nil
	}

	rec := b.cache.Put(key, &Realm{Scope: s, Artifacts: artifacts, Descriptor: descriptor})
	b.cache.Register(owner, key, rec)
	return rec.Result()
}

// PublicArtifacts returns the artifacts of an extension that stay visible
// to ordinary dependency resolution. Only an extension in the old plugin
// format, declared without extensions semantics and made of exactly its
// own resolved artifact plus LegacyUtilityArtifactID, has one: its root
// artifact.
func PublicArtifacts(plugin model.Plugin, artifacts artifact.Set) artifact.Set {
	if plugin.Extensions || len(artifacts) != 2 || artifacts[1].ArtifactID != LegacyUtilityArtifactID {
		return nil
	}
	if artifacts[0].File == "" {
		return nil
	}
	return artifacts[:1:1]
}
