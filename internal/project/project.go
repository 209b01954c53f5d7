// SPDX-License-Identifier: MPL-2.0

package project

import (
	"github.com/invowk/forge/internal/scope"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/repository"
	"github.com/invowk/forge/pkg/resolution"
)

type (
	// Project is a project being prepared for the build.
	Project struct {
		Model *model.Model
		// Lineage lists the descriptors the project inherits from, nearest
		// parent first.
		Lineage            []*model.Model
		RemoteRepositories []*repository.Repository
		PluginRepositories []*repository.Repository
		// Realm is set once the project scope is composed.
		Realm *ScopeRecord
	}

	// BuildingRequest holds the settings shared by every project of a build.
	BuildingRequest struct {
		Session *resolution.Session
		Policy  repository.MergePolicy
		// RemoteRepositories and PluginRepositories are the externally
		// supplied repositories, already built.
		RemoteRepositories []*repository.Repository
		PluginRepositories []*repository.Repository
	}

	// ScopeRecord is the composed scope of a project. Both fields are nil
	// when the project has no build extensions.
	ScopeRecord struct {
		Scope *scope.Scope
		// Filter removes the artifacts exported by the extensions from the
		// project's ordinary dependency resolution. Nil when none are exported.
		Filter *resolution.ExclusionsFilter
	}
)

// ID returns the "groupId:artifactId:version" of the project.
func (p *Project) ID() string { return p.Model.ID() }
