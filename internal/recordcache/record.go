// SPDX-License-Identifier: MPL-2.0

package recordcache

// Record is a cached computation outcome: Value on success, Err on failure.
// A Record is never modified once it is stored in a Cache.
type Record[V any] struct {
	Value V
	Err   error
}

// Result returns the record's value and error.
func (r *Record[V]) Result() (V, error) {
	return r.Value, r.Err
}

// Failed reports whether the record holds an error.
func (r *Record[V]) Failed() bool { return r.Err != nil }
