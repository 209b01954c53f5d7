// SPDX-License-Identifier: MPL-2.0

// Package extension resolves build extensions and builds the isolated
// scopes they run in.
//
// A Resolver turns a plugin reference into the artifact set of the
// extension: its own artifact first, then its transitive dependencies. A
// Builder turns an artifact set into a Realm: a scope seeded with exactly
// those artifacts, in which the extension's components have been
// discovered, together with the extension's export descriptor.
//
// Both cache their results for the whole build session. Failures to
// resolve are cached too and returned verbatim to later callers.
package extension
