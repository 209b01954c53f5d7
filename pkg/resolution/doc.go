// SPDX-License-Identifier: MPL-2.0

// Package resolution defines the contracts of the dependency-resolution
// subsystem: resolving single artifacts, version ranges and dependency
// graphs against an ordered repository list, and applying the user's
// network settings to repositories.
//
// The orchestrator core only consumes these interfaces. internal/localrepo
// provides a filesystem implementation.
package resolution
