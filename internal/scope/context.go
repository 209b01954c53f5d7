// SPDX-License-Identifier: MPL-2.0

package scope

import "context"

type activeKey struct{}

// WithScope returns a context whose active scope is s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, activeKey{}, s)
}

// FromContext returns the active scope of ctx.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(activeKey{}).(*Scope)
	return s, ok && s != nil
}

// Active returns the active scope of ctx, or the core scope of w.
func Active(ctx context.Context, w *World) *Scope {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return w.Core()
}
