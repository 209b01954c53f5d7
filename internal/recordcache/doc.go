// SPDX-License-Identifier: MPL-2.0

// Package recordcache provides the session-scoped caches of the build core.
//
// A Cache maps a comparable key to a write-once Record holding either a
// computed value or the error that computing it produced. Failures are
// cached like values so that repeated requests for the same key fail fast
// with the identical error. The cache also records which owners (projects
// of the build) depend on which keys.
//
// Lookups and insertions of unrelated keys never contend on a shared lock.
// Two callers that miss on the same key may both compute a value; the
// first Put wins and both receive the winning record.
package recordcache
