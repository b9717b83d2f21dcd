// Package config handles configuration management for bundl.
//
// Configuration is layered, lowest priority first:
//
//  1. embedded defaults (embedded/defaults.toml), which also carry the
//     default rule table
//  2. the user config at $XDG_CONFIG_HOME/bundl/config.toml
//  3. the project file: bundl.toml, .bundl.toml or bundl.yaml in the
//     project directory
//  4. BUNDL_* environment variables (double underscore separates levels,
//     e.g. BUNDL_OUTPUT__PUBLIC_PATH)
//  5. explicit overrides, usually from command-line flags
//
// A later layer that sets `rules` replaces the rule table. Rules listed
// under `extra_rules` are placed in front of the table instead, so they take
// precedence without restating the defaults.
//
// The result is built once at startup and is not mutated during a build.
package config
