// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

const (
	// LayoutDefault is the standard directory layout.
	LayoutDefault Layout = "default"
	// LayoutLegacy is the flat layout of old repositories.
	LayoutLegacy Layout = "legacy"
)

// ErrInvalidRepository is the sentinel error wrapped by InvalidRepositoryError.
var ErrInvalidRepository = errors.New("invalid repository")

// supportedProtocols lists the URL schemes a repository may use.
var supportedProtocols = []string{"file", "http", "https"}

type (
	// ID uniquely identifies a repository within a list.
	ID string

	// Layout names the directory layout of a repository.
	Layout string

	// Policy controls whether a class of artifacts (releases or snapshots)
	// is fetched from a repository.
	Policy struct {
		Enabled        bool
		UpdatePolicy   string
		ChecksumPolicy string
	}

	// Authentication holds credentials attached from a matching server entry.
	Authentication struct {
		Username string
		Password string
	}

	// Proxy is the network proxy attached to a repository.
	Proxy struct {
		Protocol string
		Host     string
		Port     int
		Username string
		Password string
	}

	// Repository is a built remote repository ready for resolution.
	Repository struct {
		ID        ID
		Name      string
		URL       string
		Layout    Layout
		Releases  Policy
		Snapshots Policy
		// Mirrored lists the repositories this one stands in for when it is a mirror.
		Mirrored       []*Repository
		Authentication *Authentication
		Proxy          *Proxy
	}

	// PolicyDeclaration is a release/snapshot policy as written in a descriptor.
	PolicyDeclaration struct {
		Enabled        *bool  `json:"enabled,omitempty"`
		UpdatePolicy   string `json:"updatePolicy,omitempty"`
		ChecksumPolicy string `json:"checksumPolicy,omitempty"`
	}

	// Declaration is a repository as written in a build descriptor or configuration.
	Declaration struct {
		ID        string             `json:"id"`
		Name      string             `json:"name,omitempty"`
		URL       string             `json:"url"`
		Layout    string             `json:"layout,omitempty"`
		Releases  *PolicyDeclaration `json:"releases,omitempty"`
		Snapshots *PolicyDeclaration `json:"snapshots,omitempty"`
	}

	// InvalidRepositoryError is returned when a declaration cannot be built
	// into a usable repository.
	InvalidRepositoryError struct {
		ID     string
		URL    string
		Reason string
	}
)

// String returns the string representation of the ID.
func (id ID) String() string { return string(id) }

// Validate returns an error if the ID is empty or contains whitespace.
func (id ID) Validate() error {
	s := string(id)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, " \t\r\n") {
		return &InvalidRepositoryError{ID: s, Reason: "repository id must be non-empty and contain no whitespace"}
	}
	return nil
}

// String returns the string representation of the Layout.
func (l Layout) String() string { return string(l) }

// Validate returns an error if the layout is not recognized. The zero value is valid.
func (l Layout) Validate() error {
	switch l {
	case "", LayoutDefault, LayoutLegacy:
		return nil
	default:
		return &InvalidRepositoryError{Reason: fmt.Sprintf("unknown layout %q", string(l))}
	}
}

// Error implements the error interface.
func (e *InvalidRepositoryError) Error() string {
	switch {
	case e.ID != "" && e.URL != "":
		return fmt.Sprintf("invalid repository %s (%s): %s", e.ID, e.URL, e.Reason)
	case e.ID != "":
		return fmt.Sprintf("invalid repository %s: %s", e.ID, e.Reason)
	default:
		return "invalid repository: " + e.Reason
	}
}

// Unwrap returns ErrInvalidRepository for errors.Is() compatibility.
func (e *InvalidRepositoryError) Unwrap() error { return ErrInvalidRepository }

// Build converts a declaration into a repository, validating its id, URL
// protocol and layout. Policies default to enabled.
func Build(decl Declaration) (*Repository, error) {
	if err := ID(decl.ID).Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(decl.URL)
	if err != nil || u.Scheme == "" {
		return nil, &InvalidRepositoryError{ID: decl.ID, URL: decl.URL, Reason: "url must be absolute"}
	}
	if !slices.Contains(supportedProtocols, strings.ToLower(u.Scheme)) {
		return nil, &InvalidRepositoryError{
			ID: decl.ID, URL: decl.URL,
			Reason: fmt.Sprintf("unsupported protocol %q (supported: %s)", u.Scheme, strings.Join(supportedProtocols, ", ")),
		}
	}

	layout := Layout(decl.Layout)
	if err := layout.Validate(); err != nil {
		return nil, &InvalidRepositoryError{ID: decl.ID, URL: decl.URL, Reason: fmt.Sprintf("unknown layout %q", decl.Layout)}
	}
	if layout == "" {
		layout = LayoutDefault
	}

	return &Repository{
		ID:        ID(decl.ID),
		Name:      decl.Name,
		URL:       decl.URL,
		Layout:    layout,
		Releases:  buildPolicy(decl.Releases),
		Snapshots: buildPolicy(decl.Snapshots),
	}, nil
}

// MustBuild is like Build but panics on error. Intended for tests and constants.
func MustBuild(decl Declaration) *Repository {
	r, err := Build(decl)
	if err != nil {
		panic(err)
	}
	return r
}

func buildPolicy(decl *PolicyDeclaration) Policy {
	p := Policy{Enabled: true}
	if decl == nil {
		return p
	}
	if decl.Enabled != nil {
		p.Enabled = *decl.Enabled
	}
	p.UpdatePolicy = decl.UpdatePolicy
	p.ChecksumPolicy = decl.ChecksumPolicy
	return p
}

// Protocol returns the lower-cased URL scheme.
func (r *Repository) Protocol() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Host returns the URL host without port.
func (r *Repository) Host() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Path returns the URL path, which is the directory of a file repository.
func (r *Repository) Path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return u.Path
}

// Clone returns a shallow copy that can be modified without affecting r.
func (r *Repository) Clone() *Repository {
	c := *r
	c.Mirrored = slices.Clone(r.Mirrored)
	return &c
}

// String returns "id (url)".
func (r *Repository) String() string {
	return fmt.Sprintf("%s (%s)", r.ID, r.URL)
}

// IDs returns the ids of the given repositories in order.
func IDs(repos []*Repository) []ID {
	ids := make([]ID, 0, len(repos))
	for _, r := range repos {
		ids = append(ids, r.ID)
	}
	return ids
}

// Effective normalizes a repository list: entries sharing an id collapse into
// the first one, which inherits the union of their mirrored repositories and
// the enabled flags of their policies.
func Effective(repos []*Repository) []*Repository {
	var out []*Repository
	index := make(map[ID]int, len(repos))
	for _, r := range repos {
		i, seen := index[r.ID]
		if !seen {
			index[r.ID] = len(out)
			out = append(out, r)
			continue
		}
		merged := out[i].Clone()
		merged.Releases.Enabled = merged.Releases.Enabled || r.Releases.Enabled
		merged.Snapshots.Enabled = merged.Snapshots.Enabled || r.Snapshots.Enabled
		for _, m := range r.Mirrored {
			if !slices.ContainsFunc(merged.Mirrored, func(x *Repository) bool { return x.ID == m.ID }) {
				merged.Mirrored = append(merged.Mirrored, m)
			}
		}
		out[i] = merged
	}
	return out
}
