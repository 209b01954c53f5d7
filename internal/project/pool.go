// SPDX-License-Identifier: MPL-2.0

package project

import (
	"sync"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/model"
)

// ReactorModelPool holds the descriptors of the modules of the current build,
// so they resolve without being published. It is safe for concurrent use.
type ReactorModelPool struct {
	mu      sync.RWMutex
	sources map[string]model.Source
}

// NewReactorModelPool returns an empty pool.
func NewReactorModelPool() *ReactorModelPool {
	return &ReactorModelPool{sources: make(map[string]model.Source)}
}

// Put adds the descriptor m read from src.
func (p *ReactorModelPool) Put(m *model.Model, src model.Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources[m.ID()] = src
}

// Delete removes the module with the given "groupId:artifactId:version".
func (p *ReactorModelPool) Delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sources, id)
}

// Get returns the source of the module with the given coordinates.
func (p *ReactorModelPool) Get(groupID artifact.GroupID, artifactID artifact.ArtifactID, version artifact.Version) (model.Source, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	src, ok := p.sources[artifact.New(groupID, artifactID, version).ID()]
	return src, ok
}

// Len returns the number of modules in the pool.
func (p *ReactorModelPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sources)
}
