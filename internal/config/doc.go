// SPDX-License-Identifier: MPL-2.0

// Package config loads forge configuration using Viper with CUE as the file format.
//
// The file is config.cue in the platform configuration directory
// ($XDG_CONFIG_HOME/forge, ~/Library/Application Support/forge or
// %APPDATA%\forge) unless an explicit path is given. It is validated against
// the embedded #Config schema, layered over defaults and overridden by
// FORGE_* environment variables.
package config
