// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests: Must* wrappers that fail the
// test on error, and fixtures that publish artifacts and build descriptors
// into file repositories on an afero filesystem.
package testutil
