// Package repl provides the interactive mode of respkv-cli.
//
// Each input line is split into arguments with redis-cli quoting rules,
// sent to the server as one command and the reply printed with the
// configured formatter. Lines are kept in a bounded history that can be
// persisted between sessions.
package repl
