// SPDX-License-Identifier: MPL-2.0

// Package reactor loads the modules of a multi-module build, orders them and
// prepares every project for building concurrently.
package reactor
