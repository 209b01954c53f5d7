// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"slices"
	"strings"

	"github.com/invowk/forge/pkg/artifact"
)

type (
	// DependencyNode is a node of a resolved dependency graph.
	DependencyNode struct {
		Artifact artifact.Artifact
		Scope    string
		Optional bool
		Children []*DependencyNode
	}

	// DependencyFilter decides whether a node is part of a graph. parents
	// lists the ancestors of node, nearest first.
	DependencyFilter interface {
		Accept(node *DependencyNode, parents []*DependencyNode) bool
	}

	// DependencyFilterFunc adapts a function to DependencyFilter.
	DependencyFilterFunc func(node *DependencyNode, parents []*DependencyNode) bool

	// ExclusionsFilter rejects artifacts by "artifactId" or "groupId:artifactId".
	ExclusionsFilter struct {
		excluded map[string]struct{}
	}
)

// Accept calls f.
func (f DependencyFilterFunc) Accept(node *DependencyNode, parents []*DependencyNode) bool {
	return f(node, parents)
}

// PreorderArtifacts flattens the graph rooted at n in preorder, root first.
// Unresolved nodes are left out but their children are still visited.
func (n *DependencyNode) PreorderArtifacts() artifact.Set {
	var out artifact.Set
	var walk func(*DependencyNode)
	walk = func(cur *DependencyNode) {
		if cur == nil {
			return
		}
		if cur.Artifact.IsResolved() {
			out = append(out, cur.Artifact)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// String renders the graph one node per line, indented by depth.
func (n *DependencyNode) String() string {
	var sb strings.Builder
	var walk func(*DependencyNode, int)
	walk = func(cur *DependencyNode, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(cur.Artifact.Coordinates.String())
		if cur.Scope != "" {
			sb.WriteString(" (" + cur.Scope + ")")
		}
		sb.WriteByte('\n')
		for _, c := range cur.Children {
			walk(c, depth+1)
		}
	}
	walk(n, 0)
	return sb.String()
}

// NewExclusionsFilter returns a filter rejecting the given ids. Each id is
// either an artifact id or "groupId:artifactId".
func NewExclusionsFilter(ids []string) *ExclusionsFilter {
	f := &ExclusionsFilter{excluded: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		f.excluded[id] = struct{}{}
	}
	return f
}

// Accept reports whether node is not excluded.
func (f *ExclusionsFilter) Accept(node *DependencyNode, _ []*DependencyNode) bool {
	c := node.Artifact.Coordinates
	if _, ok := f.excluded[string(c.ArtifactID)]; ok {
		return false
	}
	_, ok := f.excluded[c.VersionlessKey()]
	return !ok
}

// Excluded returns the number of excluded ids.
func (f *ExclusionsFilter) Excluded() int { return len(f.excluded) }

// IDs returns the excluded ids in sorted order.
func (f *ExclusionsFilter) IDs() []string {
	ids := make([]string, 0, len(f.excluded))
	for id := range f.excluded {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Excludes reports whether id is one of the excluded ids.
func (f *ExclusionsFilter) Excludes(id string) bool {
	_, ok := f.excluded[id]
	return ok
}
