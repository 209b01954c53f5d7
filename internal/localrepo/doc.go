// SPDX-License-Identifier: MPL-2.0

// Package localrepo implements the dependency-resolution contracts on top of
// file repositories.
//
// A repository whose URL is file:///srv/repo is the directory /srv/repo. In
// the default layout an artifact lives at
//
//	<group/as/path>/<artifactId>/<version>/<artifactId>-<version>[-<classifier>].<extension>
//
// and its build descriptor, which declares its dependencies, next to it as
// <artifactId>-<version>.cue. The legacy layout keeps every file of a group
// in <groupId>/<extension>s/.
//
// Repositories with other protocols are skipped; transport is outside the
// scope of this package.
package localrepo
