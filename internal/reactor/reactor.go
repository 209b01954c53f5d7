// SPDX-License-Identifier: MPL-2.0

package reactor

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/dominikbraun/graph"
	"github.com/spf13/afero"

	"github.com/invowk/forge/internal/project"
	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
	"github.com/invowk/forge/pkg/version"
)

var (
	// ErrDuplicateModule is returned when two modules share coordinates.
	ErrDuplicateModule = errors.New("duplicate module")

	// ErrCycle is returned when the modules depend on each other in a cycle.
	ErrCycle = errors.New("module cycle")
)

// Reactor is the set of modules taking part in one build. Its modules are
// registered in a ReactorModelPool so they resolve without being published.
type Reactor struct {
	pool    *project.ReactorModelPool
	modules []*project.Project
	sources []model.Source
	index   map[string]int
}

// Load reads the descriptor in dir and, recursively, the descriptors of the
// modules it lists. Modules are kept in discovery order, root first. Parent
// version ranges matched by a module of the reactor are pinned to that
// module's version before the modules are indexed.
func Load(fs afero.Fs, dir string, pool *project.ReactorModelPool) (*Reactor, error) {
	if pool == nil {
		pool = project.NewReactorModelPool()
	}
	r := &Reactor{pool: pool, index: make(map[string]int)}
	if err := r.load(fs, filepath.Clean(dir), nil); err != nil {
		return nil, err
	}
	r.pinReactorParents()
	if err := r.reindex(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reactor) load(fs afero.Fs, dir string, visiting []string) error {
	if slices.Contains(visiting, dir) {
		return fmt.Errorf("%w: module directory %s includes itself", ErrCycle, dir)
	}

	src := model.FileSource{Fs: fs, Path: filepath.Join(dir, model.DescriptorFile)}
	m, err := model.Load(src)
	if err != nil {
		return err
	}
	r.modules = append(r.modules, &project.Project{Model: m})
	r.sources = append(r.sources, src)

	for _, module := range m.Modules {
		if err := r.load(fs, filepath.Join(dir, filepath.FromSlash(module)), append(visiting, dir)); err != nil {
			return err
		}
	}
	return nil
}

// pinReactorParents rewrites every parent version range that a module of the
// reactor satisfies to that module's version. A module inheriting its version
// from a ranged parent gets concrete coordinates once its parent is pinned,
// so the pass repeats until nothing changes.
func (r *Reactor) pinReactorParents() {
	for changed := true; changed; {
		changed = false
		for _, p := range r.modules {
			parent := p.Model.Parent
			if parent == nil || !isRange(parent.Version) {
				continue
			}
			up, ok := r.Match(parent.GroupID, parent.ArtifactID, parent.Version)
			if !ok || up == p {
				continue
			}
			parent.Version = up.Model.EffectiveVersion()
			changed = true
		}
	}
}

// reindex keys every module by its current coordinates, in the reactor and
// in the model pool.
func (r *Reactor) reindex() error {
	index := make(map[string]int, len(r.modules))
	for i, p := range r.modules {
		id := p.ID()
		if j, dup := index[id]; dup {
			return fmt.Errorf("%w: %s is declared by %s and %s", ErrDuplicateModule, id, r.modules[j].Model.Location, p.Model.Location)
		}
		index[id] = i
	}
	for id, i := range r.index {
		if r.modules[i].ID() != id {
			r.pool.Delete(id)
		}
	}
	for i, p := range r.modules {
		r.pool.Put(p.Model, r.sources[i])
	}
	r.index = index
	return nil
}

// isRange reports whether v is a version range rather than a single version.
func isRange(v artifact.Version) bool {
	c, err := version.ParseConstraint(string(v))
	return err == nil && c.IsRange()
}

// Root returns the project the reactor was loaded from.
func (r *Reactor) Root() *project.Project { return r.modules[0] }

// Projects returns every project in discovery order.
func (r *Reactor) Projects() []*project.Project { return slices.Clone(r.modules) }

// Pool returns the model pool holding the descriptors of the modules.
func (r *Reactor) Pool() *project.ReactorModelPool { return r.pool }

// Project returns the module with the given "groupId:artifactId:version".
func (r *Reactor) Project(id string) (*project.Project, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.modules[i], true
}

// Match returns the module with the given group and artifact id whose
// version satisfies constraint. Among several, the highest version wins. A
// constraint that does not parse matches nothing.
func (r *Reactor) Match(groupID artifact.GroupID, artifactID artifact.ArtifactID, constraint artifact.Version) (*project.Project, bool) {
	var c *version.Constraint
	if !constraint.IsEmpty() {
		var err error
		if c, err = version.ParseConstraint(string(constraint)); err != nil {
			return nil, false
		}
	}

	var best *project.Project
	var bestVersion *version.Version
	for _, p := range r.modules {
		m := p.Model
		if m.EffectiveGroupID() != groupID || m.ArtifactID != artifactID {
			continue
		}
		v, err := version.Parse(string(m.EffectiveVersion()))
		if err != nil {
			continue
		}
		if c != nil && !c.Contains(v) {
			continue
		}
		if bestVersion == nil || v.Compare(bestVersion) > 0 {
			best, bestVersion = p, v
		}
	}
	return best, best != nil
}

// Order returns the projects so that every project comes after the modules
// it inherits from, uses as a build extension or depends on. Projects
// without such relations keep their discovery order.
func (r *Reactor) Order() ([]*project.Project, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, p := range r.modules {
		if err := g.AddVertex(p.ID()); err != nil {
			return nil, fmt.Errorf("failed to add module %s: %w", p.ID(), err)
		}
	}

	for _, p := range r.modules {
		for _, upstream := range r.upstream(p) {
			err := g.AddEdge(upstream.ID(), p.ID())
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("%w: %s and %s depend on each other", ErrCycle, upstream.ID(), p.ID())
			default:
				return nil, fmt.Errorf("failed to link %s to %s: %w", p.ID(), upstream.ID(), err)
			}
		}
	}

	ids, err := graph.StableTopologicalSort(g, func(a, b string) bool { return r.index[a] < r.index[b] })
	if err != nil {
		return nil, fmt.Errorf("failed to order modules: %w", err)
	}
	out := make([]*project.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.modules[r.index[id]])
	}
	return out, nil
}

// upstream lists the modules p needs first: its parent, its build
// extensions and its dependencies, when they are part of the reactor.
func (r *Reactor) upstream(p *project.Project) []*project.Project {
	m := p.Model
	var out []*project.Project
	add := func(g artifact.GroupID, a artifact.ArtifactID, v artifact.Version) {
		if u, ok := r.Match(g, a, v); ok && u != p {
			out = append(out, u)
		}
	}

	if m.Parent != nil {
		add(m.Parent.GroupID, m.Parent.ArtifactID, m.Parent.Version)
	}
	for _, plugin := range m.ExtensionPlugins() {
		c := plugin.Coordinates()
		add(c.GroupID, c.ArtifactID, c.Version)
	}
	for _, d := range m.Dependencies {
		add(d.GroupID, d.ArtifactID, d.Version)
	}
	return out
}
