// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"slices"
	"strings"
	"sync"

	"github.com/invowk/forge/pkg/artifact"
)

const (
	// KindCore is the scope of the orchestrator itself.
	KindCore Kind = "core"
	// KindExtension is the scope of one resolved extension.
	KindExtension Kind = "extension"
	// KindProject is the scope composed for a project from its extensions.
	KindProject Kind = "project"
)

type (
	// Kind classifies scopes.
	Kind string

	// Import makes Package of From visible in the importing scope. When
	// Package equals From's id the whole scope is imported.
	Import struct {
		Package string
		From    *Scope
	}

	// Scope is an isolated namespace. Imports may be added concurrently
	// with lookups.
	Scope struct {
		id        string
		kind      Kind
		artifacts artifact.Set
		packages  map[string]struct{}
		parent    *Scope

		mu      sync.RWMutex
		imports []Import
	}
)

func newScope(id string, kind Kind, artifacts artifact.Set, packages []string, parent *Scope) *Scope {
	s := &Scope{
		id:        id,
		kind:      kind,
		artifacts: artifacts,
		packages:  make(map[string]struct{}, len(packages)),
		parent:    parent,
	}
	for _, p := range packages {
		s.packages[p] = struct{}{}
	}
	return s
}

// ID returns the unique id of the scope within its World.
func (s *Scope) ID() string { return s.id }

// Kind returns the kind of the scope.
func (s *Scope) Kind() Kind { return s.kind }

// Artifacts returns the artifacts the scope was built from.
func (s *Scope) Artifacts() artifact.Set { return s.artifacts }

// Packages returns the packages provided by the scope's own artifacts, sorted.
func (s *Scope) Packages() []string {
	out := make([]string, 0, len(s.packages))
	for p := range s.packages {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ImportFrom makes pkg of from visible in s. Passing from.ID() as pkg
// imports every package of from.
func (s *Scope) ImportFrom(from *Scope, pkg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, im := range s.imports {
		if im.From == from && im.Package == pkg {
			return
		}
	}
	s.imports = append(s.imports, Import{Package: pkg, From: from})
}

// Imports returns the imports of s in the order they were added.
func (s *Scope) Imports() []Import {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.imports)
}

// Lookup returns the scope that provides name, a qualified name
// ("org.acme.ext.api.Lifecycle") or a package name, as seen from s.
func (s *Scope) Lookup(name string) (*Scope, bool) {
	for _, im := range s.Imports() {
		if im.Package == im.From.id {
			if provider, ok := im.From.lookupOwn(name); ok {
				return provider, true
			}
			continue
		}
		if inPackage(name, im.Package) {
			if provider, ok := im.From.lookupOwn(name); ok {
				return provider, true
			}
		}
	}
	if provider, ok := s.lookupOwn(name); ok {
		return provider, true
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil, false
}

func (s *Scope) lookupOwn(name string) (*Scope, bool) {
	if s.provides(name) {
		return s, true
	}
	return nil, false
}

// provides reports whether name or its package is one of the scope's packages.
func (s *Scope) provides(name string) bool {
	if _, ok := s.packages[name]; ok {
		return true
	}
	_, ok := s.packages[packageOf(name)]
	return ok
}

// String returns the scope id.
func (s *Scope) String() string { return s.id }

func packageOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[:i]
}

// inPackage reports whether name is pkg itself or a name inside pkg or one
// of its sub-packages.
func inPackage(name, pkg string) bool {
	return name == pkg || strings.HasPrefix(name, pkg+".")
}

// packagesOf derives package names from archive entry names, skipping
// metadata under META-INF.
func packagesOf(entries []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e, "META-INF/") {
			continue
		}
		i := strings.LastIndexByte(e, '/')
		if i <= 0 {
			continue
		}
		pkg := strings.ReplaceAll(e[:i], "/", ".")
		if _, dup := seen[pkg]; dup {
			continue
		}
		seen[pkg] = struct{}{}
		out = append(out, pkg)
	}
	return out
}
