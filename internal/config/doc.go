// Package config loads, validates, and normalizes mp4get configuration.
//
// Configuration comes from a TOML file (default ~/.config/mp4get/config.toml,
// or mp4get.toml in the working directory) merged over built-in defaults.
// Retry bounds, browser probe order, and player client strategies are all
// plain config values rather than hard-coded policy so they can be adjusted
// without a rebuild.
package config
