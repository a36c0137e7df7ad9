// Package config loads engine settings from a TOML file, applies
// SHELLPAD_* environment overrides, and watches the file so policy
// knobs (prompt marker, scrollback limit, trim policy) can be reloaded
// without restarting sessions.
package config
