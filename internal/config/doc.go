// SPDX-License-Identifier: MPL-2.0

// Package config handles tool configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pybake/config.cue (or XDG equivalent on
// Linux, ~/Library/Application Support/pybake/config.cue on macOS,
// %APPDATA%\pybake\config.cue on Windows), with a config.cue in the current
// directory as fallback. Environment variables prefixed with PYBAKE_ override
// file values.
//
// Configuration validation is performed against a CUE schema (config_schema.cue)
// to ensure type safety and provide clear error messages for invalid
// configurations.
package config
