// SPDX-License-Identifier: MPL-2.0

// Package project prepares projects for building: it computes the effective
// repositories of a project, composes the scope that makes the project's
// build extensions reachable, and resolves the build descriptors a project
// inherits from.
//
// Every cache used here lives for one build session; Caches.Flush ends it.
package project
