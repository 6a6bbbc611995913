// Package confloader provides configuration loading mechanism.
//
// It merges configuration sources with koanf and unmarshals the result into
// a koanf-tagged struct whose pre-filled fields act as defaults.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Values already set in the target struct
//
// Environment variables carry a prefix and use a double underscore for
// nesting, so RESPKV_SERVER__REDIS__MAX_CONNECTIONS sets
// server.redis.max_connections.
//
// Watcher reports writes to a configuration file so the caller can reload.
package confloader
