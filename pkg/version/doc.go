// SPDX-License-Identifier: MPL-2.0

// Package version parses artifact versions and version constraints.
//
// Versions have up to three numeric components and an optional qualifier
// ("1", "1.5", "2.0.1", "1.0-SNAPSHOT", "3.1-alpha-2"). Ordering follows
// semantic version precedence, so a qualified version sorts before its
// release.
//
// Constraints are either a soft requirement (a plain version) or a union of
// ranges in bracket notation:
//
//	[1.0]          exactly 1.0
//	[1.0,2.0)      1.0 <= v < 2.0
//	[1.0,)         v >= 1.0 (no upper bound)
//	(,1.0]         v <= 1.0
//	[1.0,1.2),[1.5,)
package version
