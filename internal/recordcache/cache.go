// SPDX-License-Identifier: MPL-2.0

package recordcache

import (
	"slices"
	"sync"
)

// Cache is a concurrent, append-only map from K to *Record[V] with owner
// registrations. The zero value is ready to use.
type Cache[K comparable, V any] struct {
	records sync.Map // K -> *Record[V]

	ownersMu sync.Mutex
	owners   map[string][]K
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{}
}

// Get returns the record stored for key.
func (c *Cache[K, V]) Get(key K) (*Record[V], bool) {
	v, ok := c.records.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Record[V]), true
}

// Put stores value for key unless a record already exists, and returns the
// record that is stored for key afterwards.
func (c *Cache[K, V]) Put(key K, value V) *Record[V] {
	return c.store(key, &Record[V]{Value: value})
}

// PutFailure stores err for key unless a record already exists, and returns
// the record that is stored for key afterwards.
func (c *Cache[K, V]) PutFailure(key K, err error) *Record[V] {
	return c.store(key, &Record[V]{Err: err})
}

func (c *Cache[K, V]) store(key K, rec *Record[V]) *Record[V] {
	actual, _ := c.records.LoadOrStore(key, rec)
	return actual.(*Record[V])
}

// Register records that owner depends on the record at key. If no record
// is stored for key yet, rec becomes the record; an existing record is never
// replaced. Registering the same owner and key again has no effect.
func (c *Cache[K, V]) Register(owner string, key K, rec *Record[V]) {
	if rec != nil {
		c.store(key, rec)
	}

	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()

	if c.owners == nil {
		c.owners = make(map[string][]K)
	}
	if slices.Contains(c.owners[owner], key) {
		return
	}
	c.owners[owner] = append(c.owners[owner], key)
}

// Registrations returns the keys owner registered, in registration order.
func (c *Cache[K, V]) Registrations(owner string) []K {
	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()

	return slices.Clone(c.owners[owner])
}

// Owners returns the owners registered for key, sorted.
func (c *Cache[K, V]) Owners(key K) []string {
	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()

	var out []string
	for owner, keys := range c.owners {
		if slices.Contains(keys, key) {
			out = append(out, owner)
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of stored records.
func (c *Cache[K, V]) Len() int {
	n := 0
	c.records.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Flush drops every record and registration. It ends the session the cache
// belongs to and must not race with other calls.
func (c *Cache[K, V]) Flush() {
	c.records.Clear()

	c.ownersMu.Lock()
	defer c.ownersMu.Unlock()
	c.owners = nil
}
