// Package config defines the format-agnostic configuration model of the
// linter and the Loader interface that fills it from a configuration file.
//
// The model is resolved in layers: Defaults, then a file loaded by a Loader
// (see the hcl package), then environment overrides (ApplyEnv), and finally
// command-line flags, which the cli package applies last.
package config
