// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the forge CLI commands.
package cmd
