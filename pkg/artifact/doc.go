// SPDX-License-Identifier: MPL-2.0

// Package artifact defines the coordinate and artifact value types shared by
// repository, resolution and extension handling.
//
// Coordinates identify an artifact in a remote repository
// (groupId:artifactId[:extension[:classifier]]:version). An [Artifact] couples
// coordinates with the local file the resolution subsystem produced for it.
//
// This package is a leaf dependency: it imports only the standard library.
package artifact
