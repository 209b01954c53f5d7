// SPDX-License-Identifier: MPL-2.0

package resolution

import (
	"strings"

	"github.com/invowk/forge/pkg/repository"
)

type (
	// Session carries the state shared by every request of one build invocation.
	Session struct {
		// ID distinguishes sessions in cache keys.
		ID string
		// LocalRepository is the directory holding already downloaded artifacts.
		LocalRepository string
		// Offline disables every non-file repository.
		Offline  bool
		Settings repository.Settings
	}

	// RequestTrace links a request to the requests that caused it.
	RequestTrace struct {
		Parent *RequestTrace
		Data   any
	}
)

// NewTrace returns a root trace.
func NewTrace(data any) *RequestTrace {
	return &RequestTrace{Data: data}
}

// Child returns a trace whose parent is t. t may be nil.
func (t *RequestTrace) Child(data any) *RequestTrace {
	return &RequestTrace{Parent: t, Data: data}
}

// String renders the trace from the root down, separated by " > ".
func (t *RequestTrace) String() string {
	var parts []string
	for cur := t; cur != nil; cur = cur.Parent {
		parts = append(parts, stringify(cur.Data))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

func stringify(v any) string {
	switch d := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return d
	case interface{ String() string }:
		return d.String()
	default:
		return "?"
	}
}
