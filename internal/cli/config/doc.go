// Package config provides the respkv-cli configuration file.
//
// The file lives at ~/.respkv/cli.yaml by default and supplies defaults for
// the connection and output flags. Flags and RESPKV_CLI_* environment
// variables always take precedence over the file.
package config
