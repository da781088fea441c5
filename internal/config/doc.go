// Package config loads and validates the ordervox configuration file.
//
// Configuration lives in a single TOML file. Defaults cover every
// field, so a missing file yields a working configuration apart from
// the transcriber API key, which may also come from the environment.
package config
