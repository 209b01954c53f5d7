// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// hints for fixing it. Issue is a catalog of Markdown guidance pages for the
// failure classes a build can hit, rendered for the terminal with glamour.
package issue
