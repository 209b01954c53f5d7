// SPDX-License-Identifier: MPL-2.0

package model

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/cueutil"
	"github.com/invowk/forge/pkg/repository"
)

const (
	// DescriptorFile is the file name of a project's build descriptor.
	DescriptorFile = "forge.cue"

	// DefaultPackaging is the packaging of a descriptor that declares none.
	DefaultPackaging = "jar"

	// DefaultPluginGroupID is the group of a plugin declared without one.
	DefaultPluginGroupID artifact.GroupID = "org.forge.plugins"

	// ScopeCompile is the default dependency scope.
	ScopeCompile = "compile"
	// ScopeRuntime marks dependencies needed only at run time.
	ScopeRuntime = "runtime"
)

// ErrInvalidModel is the sentinel error wrapped by InvalidModelError.
var (
	ErrInvalidModel = errors.New("invalid build descriptor")

	//go:embed descriptor_schema.cue
	descriptorSchema []byte
)

type (
	// Parent references the descriptor a project inherits from. Version may
	// be a range; it is rewritten to the concrete version once resolved.
	Parent struct {
		GroupID      artifact.GroupID    `json:"groupId"`
		ArtifactID   artifact.ArtifactID `json:"artifactId"`
		Version      artifact.Version    `json:"version"`
		RelativePath string              `json:"relativePath,omitempty"`
	}

	// Exclusion removes a transitive dependency. Either id may be "*".
	Exclusion struct {
		GroupID    string `json:"groupId"`
		ArtifactID string `json:"artifactId"`
	}

	// Dependency is a declared dependency of a project or a plugin.
	Dependency struct {
		GroupID    artifact.GroupID    `json:"groupId"`
		ArtifactID artifact.ArtifactID `json:"artifactId"`
		Version    artifact.Version    `json:"version,omitempty"`
		Type       string              `json:"type,omitempty"`
		Classifier string              `json:"classifier,omitempty"`
		Scope      string              `json:"scope,omitempty"`
		Optional   bool                `json:"optional,omitempty"`
		Exclusions []Exclusion         `json:"exclusions,omitempty"`
	}

	// Extension is an entry of build.extensions.
	Extension struct {
		GroupID    artifact.GroupID    `json:"groupId"`
		ArtifactID artifact.ArtifactID `json:"artifactId"`
		Version    artifact.Version    `json:"version,omitempty"`
	}

	// Plugin is an entry of build.plugins. Plugins with Extensions set are
	// loaded as build extensions.
	Plugin struct {
		GroupID      artifact.GroupID    `json:"groupId,omitempty"`
		ArtifactID   artifact.ArtifactID `json:"artifactId"`
		Version      artifact.Version    `json:"version,omitempty"`
		Extensions   bool                `json:"extensions,omitempty"`
		Dependencies []Dependency        `json:"dependencies,omitempty"`
	}

	// Build holds the build section of a descriptor.
	Build struct {
		Extensions []Extension `json:"extensions,omitempty"`
		Plugins    []Plugin    `json:"plugins,omitempty"`
	}

	// Model is a parsed build descriptor.
	Model struct {
		GroupID            artifact.GroupID         `json:"groupId,omitempty"`
		ArtifactID         artifact.ArtifactID      `json:"artifactId"`
		Version            artifact.Version         `json:"version,omitempty"`
		Packaging          string                   `json:"packaging,omitempty"`
		Name               string                   `json:"name,omitempty"`
		Parent             *Parent                  `json:"parent,omitempty"`
		Repositories       []repository.Declaration `json:"repositories,omitempty"`
		PluginRepositories []repository.Declaration `json:"pluginRepositories,omitempty"`
		Dependencies       []Dependency             `json:"dependencies,omitempty"`
		Build              *Build                   `json:"build,omitempty"`
		Modules            []string                 `json:"modules,omitempty"`

		// Location is where the descriptor was read from; not part of the document.
		Location string `json:"-"`
	}

	// InvalidModelError is returned when a descriptor is well-formed CUE but
	// semantically incomplete.
	InvalidModelError struct {
		Location string
		Reason   string
	}
)

// Error implements the error interface.
func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid build descriptor %s: %s", e.Location, e.Reason)
}

// Unwrap returns ErrInvalidModel for errors.Is() compatibility.
func (e *InvalidModelError) Unwrap() error { return ErrInvalidModel }

// Parse decodes and validates a descriptor. location names it in errors and
// is recorded on the returned model.
func Parse(data []byte, location string) (*Model, error) {
	result, err := cueutil.ParseAndDecode[Model](descriptorSchema, data, "#Descriptor", cueutil.WithFilename(location))
	if err != nil {
		return nil, err
	}

	m := result.Value
	m.Location = location

	if m.EffectiveGroupID() == "" {
		return nil, &InvalidModelError{Location: location, Reason: "groupId is required when there is no parent"}
	}
	if m.EffectiveVersion() == "" {
		return nil, &InvalidModelError{Location: location, Reason: "version is required when there is no parent"}
	}
	return m, nil
}

// EffectiveGroupID returns the declared group id, or the parent's.
func (m *Model) EffectiveGroupID() artifact.GroupID {
	if m.GroupID != "" || m.Parent == nil {
		return m.GroupID
	}
	return m.Parent.GroupID
}

// EffectiveVersion returns the declared version, or the parent's.
func (m *Model) EffectiveVersion() artifact.Version {
	if m.Version != "" || m.Parent == nil {
		return m.Version
	}
	return m.Parent.Version
}

// EffectivePackaging returns the declared packaging or DefaultPackaging.
func (m *Model) EffectivePackaging() string {
	if m.Packaging == "" {
		return DefaultPackaging
	}
	return m.Packaging
}

// Coordinates returns the coordinates of the descriptor itself.
func (m *Model) Coordinates() artifact.Coordinates {
	return artifact.New(m.EffectiveGroupID(), m.ArtifactID, m.EffectiveVersion())
}

// ID returns "groupId:artifactId:version".
func (m *Model) ID() string { return m.Coordinates().ID() }

// ExtensionPlugins returns the plugins loaded as build extensions: every
// build.extensions entry converted to a plugin (with Extensions unset),
// followed by every plugin declared with extensions enabled.
func (m *Model) ExtensionPlugins() []Plugin {
	if m.Build == nil {
		return nil
	}
	var out []Plugin
	for _, ext := range m.Build.Extensions {
		out = append(out, Plugin{
			GroupID:    ext.GroupID,
			ArtifactID: ext.ArtifactID,
			Version:    ext.Version,
		})
	}
	for _, p := range m.Build.Plugins {
		if p.Extensions {
			out = append(out, p.withDefaults())
		}
	}
	return out
}

// Key returns "groupId:artifactId".
func (p Parent) Key() string { return string(p.GroupID) + ":" + string(p.ArtifactID) }

// String returns "groupId:artifactId:version".
func (p Parent) String() string { return p.Key() + ":" + string(p.Version) }

func (p Plugin) withDefaults() Plugin {
	if p.GroupID == "" {
		p.GroupID = DefaultPluginGroupID
	}
	return p
}

// Coordinates returns the plugin's coordinates.
func (p Plugin) Coordinates() artifact.Coordinates {
	p = p.withDefaults()
	return artifact.New(p.GroupID, p.ArtifactID, p.Version)
}

// Key returns "groupId:artifactId" with the default plugin group applied.
func (p Plugin) Key() string { return p.Coordinates().VersionlessKey() }

// Coordinates returns the dependency's coordinates; Type becomes the extension.
func (d Dependency) Coordinates() artifact.Coordinates {
	c := artifact.New(d.GroupID, d.ArtifactID, d.Version)
	c.Extension = d.Type
	c.Classifier = d.Classifier
	return c
}

// EffectiveScope returns Scope or ScopeCompile.
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return ScopeCompile
	}
	return d.Scope
}

// Excludes reports whether the exclusion list of d removes the given dependency.
func (d Dependency) Excludes(groupID artifact.GroupID, artifactID artifact.ArtifactID) bool {
	for _, ex := range d.Exclusions {
		if (ex.GroupID == "*" || ex.GroupID == string(groupID)) &&
			(ex.ArtifactID == "*" || ex.ArtifactID == string(artifactID)) {
			return true
		}
	}
	return false
}
