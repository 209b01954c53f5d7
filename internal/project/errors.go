// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"fmt"

	"github.com/invowk/forge/pkg/artifact"
)

// ErrUnresolvableModel is matched by UnresolvableModelError.
var ErrUnresolvableModel = errors.New("unresolvable build descriptor")

// UnresolvableModelError reports a descriptor that could not be resolved to
// a readable source.
type UnresolvableModelError struct {
	GroupID    artifact.GroupID
	ArtifactID artifact.ArtifactID
	Version    artifact.Version
	Reason     string
	Cause      error
}

// Error implements the error interface.
func (e *UnresolvableModelError) Error() string {
	return fmt.Sprintf("could not resolve build descriptor %s:%s:%s: %s", e.GroupID, e.ArtifactID, e.Version, e.Reason)
}

// Is reports whether target is ErrUnresolvableModel.
func (e *UnresolvableModelError) Is(target error) bool { return target == ErrUnresolvableModel }

// Unwrap returns the underlying cause, if any.
func (e *UnresolvableModelError) Unwrap() error { return e.Cause }
