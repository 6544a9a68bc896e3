// Package config holds the logtap service configuration.
//
// Configuration is layered: built-in defaults, then an optional JSON or
// YAML file, then LOGTAP_* environment variables. The resulting Config is
// passed by value into the runtime; nothing reads configuration ambiently.
package config
