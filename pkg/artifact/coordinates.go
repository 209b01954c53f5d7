// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultExtension is the file extension used when coordinates do not name one.
const DefaultExtension = "jar"

// ErrInvalidCoordinates is the sentinel error wrapped by InvalidCoordinatesError.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// idPattern matches group and artifact identifiers.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

type (
	// GroupID is the dot-separated namespace of an artifact (e.g., "org.acme.build").
	GroupID string

	// ArtifactID names an artifact within its group.
	ArtifactID string

	// Version is a raw version string as declared. It may be empty before
	// resolution, a concrete version ("1.5") or a range expression ("[1.0,2.0)").
	Version string

	// Coordinates identify an artifact.
	Coordinates struct {
		GroupID    GroupID
		ArtifactID ArtifactID
		Version    Version
		// Extension is the file extension (e.g., "jar", "cue"). Empty means DefaultExtension.
		Extension string
		// Classifier distinguishes secondary artifacts of the same coordinates.
		Classifier string
	}

	// InvalidCoordinatesError is returned when coordinates are malformed.
	InvalidCoordinatesError struct {
		Value  string
		Reason string
	}
)

// String returns the string representation of the GroupID.
func (g GroupID) String() string { return string(g) }

// Validate returns an error if the GroupID is empty or contains illegal characters.
func (g GroupID) Validate() error {
	if !idPattern.MatchString(string(g)) {
		return &InvalidCoordinatesError{Value: string(g), Reason: "group id must match " + idPattern.String()}
	}
	return nil
}

// String returns the string representation of the ArtifactID.
func (a ArtifactID) String() string { return string(a) }

// Validate returns an error if the ArtifactID is empty or contains illegal characters.
func (a ArtifactID) Validate() error {
	if !idPattern.MatchString(string(a)) {
		return &InvalidCoordinatesError{Value: string(a), Reason: "artifact id must match " + idPattern.String()}
	}
	return nil
}

// String returns the string representation of the Version.
func (v Version) String() string { return string(v) }

// IsEmpty reports whether no version was declared.
func (v Version) IsEmpty() bool { return strings.TrimSpace(string(v)) == "" }

// Error implements the error interface.
func (e *InvalidCoordinatesError) Error() string {
	return fmt.Sprintf("invalid coordinates %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidCoordinates for errors.Is() compatibility.
func (e *InvalidCoordinatesError) Unwrap() error { return ErrInvalidCoordinates }

// New returns coordinates with the default extension.
func New(groupID GroupID, artifactID ArtifactID, version Version) Coordinates {
	return Coordinates{GroupID: groupID, ArtifactID: artifactID, Version: version}
}

// Parse parses "groupId:artifactId[:extension[:classifier]]:version".
func Parse(s string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var c Coordinates
	switch len(parts) {
	case 3:
		c = Coordinates{GroupID: GroupID(parts[0]), ArtifactID: ArtifactID(parts[1]), Version: Version(parts[2])}
	case 4:
		c = Coordinates{GroupID: GroupID(parts[0]), ArtifactID: ArtifactID(parts[1]), Extension: parts[2], Version: Version(parts[3])}
	case 5:
		c = Coordinates{GroupID: GroupID(parts[0]), ArtifactID: ArtifactID(parts[1]), Extension: parts[2], Classifier: parts[3], Version: Version(parts[4])}
	default:
		return Coordinates{}, &InvalidCoordinatesError{Value: s, Reason: "expected groupId:artifactId[:extension[:classifier]]:version"}
	}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

// Validate checks the group and artifact identifiers. The version is not
// checked because it may legitimately be unset or a range.
func (c Coordinates) Validate() error {
	if err := c.GroupID.Validate(); err != nil {
		return err
	}
	return c.ArtifactID.Validate()
}

// Ext returns the file extension, falling back to DefaultExtension.
func (c Coordinates) Ext() string {
	if c.Extension == "" {
		return DefaultExtension
	}
	return c.Extension
}

// WithVersion returns a copy of c with the given version.
func (c Coordinates) WithVersion(v Version) Coordinates {
	c.Version = v
	return c
}

// WithExtension returns a copy of c with the given extension.
func (c Coordinates) WithExtension(ext string) Coordinates {
	c.Extension = ext
	return c
}

// VersionlessKey returns "groupId:artifactId", the identity used for conflict
// resolution between versions of the same artifact.
func (c Coordinates) VersionlessKey() string {
	return string(c.GroupID) + ":" + string(c.ArtifactID)
}

// ID returns "groupId:artifactId:version".
func (c Coordinates) ID() string {
	return c.VersionlessKey() + ":" + string(c.Version)
}

// String returns "groupId:artifactId:extension[:classifier]:version".
func (c Coordinates) String() string {
	var sb strings.Builder
	sb.WriteString(c.VersionlessKey())
	sb.WriteString(":")
	sb.WriteString(c.Ext())
	if c.Classifier != "" {
		sb.WriteString(":")
		sb.WriteString(c.Classifier)
	}
	sb.WriteString(":")
	sb.WriteString(string(c.Version))
	return sb.String()
}

// FileName returns "<artifactId>-<version>[-<classifier>].<extension>".
func (c Coordinates) FileName() string {
	name := string(c.ArtifactID) + "-" + string(c.Version)
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Ext()
}

// RepositoryPath returns the slash-separated path of the artifact file in a
// repository with the default layout:
// "<group/as/path>/<artifactId>/<version>/<FileName>".
func (c Coordinates) RepositoryPath() string {
	return strings.ReplaceAll(string(c.GroupID), ".", "/") + "/" + string(c.ArtifactID) + "/" + string(c.Version) + "/" + c.FileName()
}
