// Package config holds the axcore configuration surface.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variable overrides. Sections mirror the tunables of the
// packages they configure; the session wires them through at assembly.
package config
