// SPDX-License-Identifier: MPL-2.0

// Package model defines the build descriptor (forge.cue) of a project.
//
// A descriptor names the project's coordinates, an optional parent
// descriptor it inherits from, the repositories it declares, its
// dependencies, and the build plugins and extensions that augment the
// orchestrator while the project is built. Descriptors are CUE documents
// validated against the embedded #Descriptor schema; the same schema is
// used for descriptors published next to artifacts in a repository.
package model
