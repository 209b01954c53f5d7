// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/archive"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/cueutil"
)

const (
	// CoreID is the id of the core scope.
	CoreID = "forge.core"

	// ComponentsEntry is the archive entry declaring an artifact's components.
	ComponentsEntry = "META-INF/forge/components.cue"
)

// CorePackages are the packages of the orchestrator visible from every scope.
var CorePackages = []string{"org.forge.api", "org.forge.api.lifecycle", "org.forge.api.plugin"}

var (
	// ErrDuplicateComponent is returned when two artifacts of a scope declare
	// the same role and hint.
	ErrDuplicateComponent = errors.New("duplicate component")

	//go:embed components_schema.cue
	componentsSchema []byte
)

type (
	// Component is a capability implementation declared by an artifact.
	Component struct {
		Role           string `json:"role"`
		Hint           string `json:"hint,omitempty"`
		Implementation string `json:"implementation"`
	}

	// Registration is a discovered component and the scope it was found in.
	Registration struct {
		Component
		Scope *Scope
	}

	componentsFile struct {
		Components []Component `json:"components"`
	}

	// World owns every scope of a build session and the component registry.
	// It is safe for concurrent use.
	World struct {
		fs     afero.Fs
		logger *slog.Logger
		core   *Scope

		mu       sync.Mutex
		scopes   map[string]*Scope
		order    []*Scope
		registry []Registration
	}

	// Option configures a World.
	Option func(*World)
)

// WithLogger sets the logger of the world. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		w.logger = l
	}
}

// NewWorld returns a world whose scopes read artifacts from fs.
func NewWorld(fs afero.Fs, opts ...Option) *World {
	w := &World{
		fs:     fs,
		logger: slog.Default(),
		scopes: make(map[string]*Scope),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.core = newScope(CoreID, KindCore, nil, CorePackages, nil)
	w.scopes[CoreID] = w.core
	w.order = append(w.order, w.core)
	return w
}

// Core returns the core scope.
func (w *World) Core() *Scope { return w.core }

// NewExtensionScope creates a scope seeded with exactly the files of artifacts.
// id is made unique within the world by appending a counter if needed.
func (w *World) NewExtensionScope(id string, artifacts artifact.Set) (*Scope, error) {
	return w.newScope(id, KindExtension, artifacts)
}

// NewProjectScope creates a project scope. public lists artifacts whose
// packages the project scope provides itself.
func (w *World) NewProjectScope(id string, public artifact.Set) (*Scope, error) {
	return w.newScope(id, KindProject, public)
}

func (w *World) newScope(id string, kind Kind, artifacts artifact.Set) (*Scope, error) {
	var packages []string
	for _, a := range artifacts {
		entries, err := archive.Entries(w.fs, a.File)
		if err != nil {
			return nil, fmt.Errorf("failed to index %s for scope %s: %w", a.Coordinates, id, err)
		}
		packages = append(packages, packagesOf(entries)...)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	unique := id
	for n := 2; ; n++ {
		if _, taken := w.scopes[unique]; !taken {
			break
		}
		unique = id + "-" + strconv.Itoa(n)
	}
	s := newScope(unique, kind, slices.Clone(artifacts), packages, w.core)
	w.scopes[unique] = s
	w.order = append(w.order, s)
	return s, nil
}

// Scope returns the scope with the given id.
func (w *World) Scope(id string) (*Scope, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.scopes[id]
	return s, ok
}

// Scopes returns every scope in creation order, core first.
func (w *World) Scopes() []*Scope {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.order)
}

// Discover registers the components declared by the artifacts of s.
// Artifacts without a components entry declare none. A malformed entry or
// a duplicate role/hint pair fails discovery and registers nothing.
func (w *World) Discover(_ context.Context, s *Scope) error {
	var found []Registration
	for _, a := range s.artifacts {
		data, err := archive.ReadEntry(w.fs, a.File, ComponentsEntry)
		if errors.Is(err, archive.ErrEntryNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read components of %s: %w", a.Coordinates, err)
		}
		result, err := cueutil.ParseAndDecode[componentsFile](componentsSchema, data, "#Components",
			cueutil.WithFilename(a.File+"!/"+ComponentsEntry))
		if err != nil {
			return err
		}
		for _, c := range result.Value.Components {
			if slices.ContainsFunc(found, func(r Registration) bool { return r.Role == c.Role && r.Hint == c.Hint }) {
				return fmt.Errorf("%w: role %q hint %q in scope %s", ErrDuplicateComponent, c.Role, c.Hint, s.id)
			}
			found = append(found, Registration{Component: c, Scope: s})
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.registry = append(w.registry, found...)
	w.logger.Debug("discovered components", "scope", s.id, "count", len(found))
	return nil
}

// Components returns the registrations for role visible from the active
// scope of ctx (the core scope if none is active): those registered in the
// active scope itself or in a scope it imports from.
func (w *World) Components(ctx context.Context, role string) []Registration {
	active := Active(ctx, w)
	imports := active.Imports()

	w.mu.Lock()
	candidates := slices.Clone(w.registry)
	w.mu.Unlock()

	var out []Registration
	for _, r := range candidates {
		if r.Role != role {
			continue
		}
		if r.Scope == active || slices.ContainsFunc(imports, func(im Import) bool { return im.From == r.Scope }) {
			out = append(out, r)
		}
	}
	return out
}
