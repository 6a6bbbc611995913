// Package command provides the respkv-cli command tree.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags and the default action
//   - kv.go: ping, echo, get and set subcommands
//   - repl.go: interactive mode
//
// Without a subcommand the arguments are sent verbatim as one command, as
// redis-cli does. Without any arguments the interactive mode starts.
package command
