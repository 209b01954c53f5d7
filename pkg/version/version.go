// SPDX-License-Identifier: MPL-2.0

package version

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

// versionRegex matches version strings with up to three numeric components.
var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z\-.]+))?$`)

type (
	// Version is a parsed artifact version.
	Version struct {
		Major     int
		Minor     int
		Patch     int
		Qualifier string
		// Original is the string the version was parsed from.
		Original string
	}

	// InvalidVersionError is returned when a version string cannot be parsed.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Value)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// Parse parses a version string.
func Parse(s string) (*Version, error) {
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, &InvalidVersionError{Value: s}
	}

	v := &Version{Original: s, Qualifier: m[4]}
	var err error
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return nil, &InvalidVersionError{Value: s}
	}
	if m[2] != "" {
		if v.Minor, err = strconv.Atoi(m[2]); err != nil {
			return nil, &InvalidVersionError{Value: s}
		}
	}
	if m[3] != "" {
		if v.Patch, err = strconv.Atoi(m[3]); err != nil {
			return nil, &InvalidVersionError{Value: s}
		}
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original version string.
func (v *Version) String() string { return v.Original }

// IsSnapshot reports whether the version carries the SNAPSHOT qualifier.
func (v *Version) IsSnapshot() bool {
	return strings.HasSuffix(v.Qualifier, "SNAPSHOT")
}

// canonical renders the version in semver form for golang.org/x/mod/semver.
func (v *Version) canonical() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Qualifier != "" {
		s += "-" + v.Qualifier
	}
	return s
}

// Compare returns -1, 0 or 1 when v sorts before, equal to or after other.
// Qualified versions sort before the release they qualify.
func (v *Version) Compare(other *Version) int {
	a, b := v.canonical(), other.canonical()
	if semver.IsValid(a) && semver.IsValid(b) {
		return semver.Compare(a, b)
	}

	// Qualifiers that are not valid semver prerelease identifiers
	// (e.g. leading zeros) fall back to a field-wise comparison.
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Patch, other.Patch); c != 0 {
		return c
	}
	switch {
	case v.Qualifier == other.Qualifier:
		return 0
	case v.Qualifier == "":
		return 1
	case other.Qualifier == "":
		return -1
	default:
		return cmp.Compare(v.Qualifier, other.Qualifier)
	}
}

// Equal reports whether both versions have the same precedence.
func (v *Version) Equal(other *Version) bool { return v.Compare(other) == 0 }

// Sort sorts versions in ascending order.
func Sort(versions []*Version) {
	slices.SortStableFunc(versions, func(a, b *Version) int { return a.Compare(b) })
}

// Highest returns the highest version, or nil for an empty slice.
func Highest(versions []*Version) *Version {
	var best *Version
	for _, v := range versions {
		if best == nil || v.Compare(best) > 0 {
			best = v
		}
	}
	return best
}
