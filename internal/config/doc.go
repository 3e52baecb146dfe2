// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Besides solver, output and server settings,
// a YAML file may carry the packing problem itself under a "problem" key.
package config
