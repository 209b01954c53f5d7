// SPDX-License-Identifier: MPL-2.0

// Package scope implements the component runtime that hosts build extensions.
//
// A Scope is an isolated namespace built from a set of artifact files. It
// provides the packages found in those files and may import packages, or a
// whole other scope, from other scopes. Names are resolved against imports
// first, then the scope's own packages, then the core scope.
//
// Components are declared by artifacts in META-INF/forge/components.cue and
// registered in the World when a scope is discovered. Component lookups are
// answered relative to the active scope carried by a context.Context.
package scope
