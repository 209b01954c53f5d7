// SPDX-License-Identifier: MPL-2.0

package repository

import "slices"

// SessionList tracks the repositories usable while a chain of descriptors is
// resolved. It starts from the externally supplied repositories and grows as
// descriptors declare more, honouring the merge policy chosen for the build.
//
// A SessionList is not safe for concurrent use; Clone gives each independent
// walk its own copy.
type SessionList struct {
	aggregator Aggregator
	policy     MergePolicy
	ids        map[ID]struct{}
	declared   []*Repository
	external   []*Repository
	effective  []*Repository
}

// NewSessionList returns a list whose effective repositories are the external ones.
func NewSessionList(aggregator Aggregator, policy MergePolicy, external []*Repository) *SessionList {
	ext := slices.Clone(external)
	return &SessionList{
		aggregator: aggregator,
		policy:     policy,
		ids:        make(map[ID]struct{}),
		external:   ext,
		effective:  slices.Clone(ext),
	}
}

// Add records a repository declared by a descriptor.
//
// A repository whose id was already added is ignored unless replace is set,
// in which case earlier entries with that id are dropped from the declared
// and effective lists before the new one is aggregated. Under POMDominant the
// declared repositories stay ahead of the external ones; under
// RequestDominant a new repository is only ever appended behind the current
// effective list.
func (l *SessionList) Add(repo *Repository, replace bool) {
	if _, known := l.ids[repo.ID]; known {
		if !replace {
			return
		}
		l.effective = removeID(l.effective, repo.ID)
		l.declared = removeID(l.declared, repo.ID)
	}
	l.ids[repo.ID] = struct{}{}

	added := []*Repository{repo}
	if l.policy == RequestDominant {
		l.effective = l.aggregator.AggregateRepositories(l.effective, added, true)
		return
	}
	l.declared = l.aggregator.AggregateRepositories(l.declared, added, true)
	l.effective = l.aggregator.AggregateRepositories(l.declared, l.external, false)
}

// Effective returns a copy of the repositories to resolve against, in order.
func (l *SessionList) Effective() []*Repository { return slices.Clone(l.effective) }

// Declared returns a copy of the repositories added through Add that are
// tracked on the descriptor side.
func (l *SessionList) Declared() []*Repository { return slices.Clone(l.declared) }

// External returns a copy of the externally supplied repositories.
func (l *SessionList) External() []*Repository { return slices.Clone(l.external) }

// Policy returns the merge policy of the list.
func (l *SessionList) Policy() MergePolicy { return l.policy }

// Clone returns an independent copy. The external list and the aggregator
// are shared; the mutable state is not.
func (l *SessionList) Clone() *SessionList {
	ids := make(map[ID]struct{}, len(l.ids))
	for id := range l.ids {
		ids[id] = struct{}{}
	}
	return &SessionList{
		aggregator: l.aggregator,
		policy:     l.policy,
		ids:        ids,
		declared:   slices.Clone(l.declared),
		external:   l.external,
		effective:  slices.Clone(l.effective),
	}
}

func removeID(repos []*Repository, id ID) []*Repository {
	return slices.DeleteFunc(slices.Clone(repos), func(r *Repository) bool { return r.ID == id })
}
