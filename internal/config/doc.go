// Package config loads and validates slate's TOML configuration.
//
// Load resolves the config path (explicit flag, ~/.config/slate, or a
// project-local slate.toml), decodes over Default values, expands home
// paths, and validates the result. The embedded sample_config.toml is
// what `slate config init` writes.
package config
