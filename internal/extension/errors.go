// SPDX-License-Identifier: MPL-2.0

package extension

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/forge/pkg/artifact"
	"github.com/invowk/forge/pkg/repository"
)

var (
	// ErrVersionResolution is matched by VersionResolutionError.
	ErrVersionResolution = errors.New("extension version resolution failed")
	// ErrPluginResolution is matched by PluginResolutionError.
	ErrPluginResolution = errors.New("extension resolution failed")
	// ErrInvalidDescriptor is matched by InvalidDescriptorError.
	ErrInvalidDescriptor = errors.New("invalid extension descriptor")
	// ErrDiscovery is matched by DiscoveryError.
	ErrDiscovery = errors.New("extension component discovery failed")
)

type (
	// VersionResolutionError reports an extension declared without a version
	// for which no version could be determined.
	VersionResolutionError struct {
		Plugin       artifact.Coordinates
		Repositories []repository.ID
		Cause        error
	}

	// PluginResolutionError reports an extension whose artifacts could not be resolved.
	PluginResolutionError struct {
		Plugin artifact.Coordinates
		Cause  error
	}

	// DiscoveryError reports a scope in which the extension's components
	// could not be registered. It is fatal to the build.
	DiscoveryError struct {
		Plugin artifact.Coordinates
		Scope  string
		Cause  error
	}
)

// Error implements the error interface.
func (e *VersionResolutionError) Error() string {
	ids := make([]string, 0, len(e.Repositories))
	for _, id := range e.Repositories {
		ids = append(ids, string(id))
	}
	return fmt.Sprintf("failed to resolve version of extension %s from [%s]: %v",
		e.Plugin.VersionlessKey(), strings.Join(ids, ", "), e.Cause)
}

// Is reports whether target is ErrVersionResolution.
func (e *VersionResolutionError) Is(target error) bool { return target == ErrVersionResolution }

// Unwrap returns the cause.
func (e *VersionResolutionError) Unwrap() error { return e.Cause }

// Error implements the error interface.
func (e *PluginResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve extension %s: %v", e.Plugin.ID(), e.Cause)
}

// Is reports whether target is ErrPluginResolution.
func (e *PluginResolutionError) Is(target error) bool { return target == ErrPluginResolution }

// Unwrap returns the cause.
func (e *PluginResolutionError) Unwrap() error { return e.Cause }

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed to discover components of extension %s in scope %s: %v", e.Plugin.ID(), e.Scope, e.Cause)
}

// Is reports whether target is ErrDiscovery.
func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

// Unwrap returns the cause.
func (e *DiscoveryError) Unwrap() error { return e.Cause }
