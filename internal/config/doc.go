// Package config loads and validates sentinel's TOML configuration.
//
// Load resolves the config path (flag value, then ~/.config/sentinel/
// config.toml, then ./sentinel.toml), decodes it over the defaults, expands
// home-relative paths, and validates the result. Every component receives a
// *Config by injection; there is no global configuration state.
package config
