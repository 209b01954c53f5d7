// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// POMDominant gives repositories declared by the descriptor precedence over
	// externally supplied ones. It is the default.
	POMDominant MergePolicy = "pom_dominant"
	// RequestDominant gives externally supplied repositories precedence.
	RequestDominant MergePolicy = "request_dominant"
)

// ErrInvalidMergePolicy is returned when a MergePolicy value is not recognized.
var ErrInvalidMergePolicy = errors.New("invalid repository merge policy")

type (
	// MergePolicy decides which repository list wins id conflicts and is consulted first.
	MergePolicy string

	// Aggregator combines a dominant and a recessive repository list. When
	// recessiveIsRaw is set the recessive entries have not yet received
	// mirror, proxy and authentication settings and must be given them.
	Aggregator interface {
		AggregateRepositories(dominant, recessive []*Repository, recessiveIsRaw bool) []*Repository
	}

	// AggregatorFunc adapts a function to the Aggregator interface.
	AggregatorFunc func(dominant, recessive []*Repository, recessiveIsRaw bool) []*Repository
)

// AggregateRepositories calls f.
func (f AggregatorFunc) AggregateRepositories(dominant, recessive []*Repository, recessiveIsRaw bool) []*Repository {
	return f(dominant, recessive, recessiveIsRaw)
}

// ParseMergePolicy accepts the canonical names case-insensitively, with either
// '_' or '-' as separator. An empty string yields POMDominant.
func ParseMergePolicy(s string) (MergePolicy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch MergePolicy(norm) {
	case "":
		return POMDominant, nil
	case POMDominant, RequestDominant:
		return MergePolicy(norm), nil
	default:
		return "", fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidMergePolicy, s, POMDominant, RequestDominant)
	}
}

// String returns the string representation of the MergePolicy.
func (p MergePolicy) String() string { return string(p) }

// Validate returns an error if the policy is not recognized. The zero value is valid.
func (p MergePolicy) Validate() error {
	switch p {
	case "", POMDominant, RequestDominant:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMergePolicy, string(p))
	}
}

// Split returns the dominant and recessive lists for the given descriptor
// (pom) and external lists under this policy.
func (p MergePolicy) Split(pom, external []*Repository) (dominant, recessive []*Repository) {
	if p == RequestDominant {
		return external, pom
	}
	return pom, external
}

// Merge concatenates dominant and recessive, dropping every entry whose id
// was already seen. The first occurrence of an id wins.
func Merge(dominant, recessive []*Repository) []*Repository {
	out := make([]*Repository, 0, len(dominant)+len(recessive))
	seen := make(map[ID]struct{}, len(dominant)+len(recessive))
	for _, list := range [][]*Repository{dominant, recessive} {
		for _, r := range list {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
