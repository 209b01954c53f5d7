// SPDX-License-Identifier: MPL-2.0

package artifact

import "strings"

// Artifact is a resolved artifact: coordinates plus the local file that holds
// its content. File is empty while the artifact is unresolved.
type Artifact struct {
	Coordinates
	File string
}

// IsResolved reports whether the artifact has a local file.
func (a Artifact) IsResolved() bool { return a.File != "" }

// Set is an ordered, immutable artifact list: the root artifact first, then its
// transitive dependencies in preorder.
type Set []Artifact

// Root returns the first artifact of the set.
func (s Set) Root() (Artifact, bool) {
	if len(s) == 0 {
		return Artifact{}, false
	}
	return s[0], true
}

// Files returns the local files of the set in order.
func (s Set) Files() []string {
	files := make([]string, 0, len(s))
	for _, a := range s {
		files = append(files, a.File)
	}
	return files
}

// String renders the set as a bracketed, comma separated coordinate list.
func (s Set) String() string {
	ids := make([]string, 0, len(s))
	for _, a := range s {
		ids = append(ids, a.Coordinates.String())
	}
	return "[" + strings.Join(ids, ", ") + "]"
}
