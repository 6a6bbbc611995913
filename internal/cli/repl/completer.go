package repl

import (
	"sort"
	"strings"
)

// Completer provides command name completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the server commands plus the
// REPL's local commands.
func NewCompleter() *Completer {
	cmds := []string{
		"PING", "ECHO", "GET", "SET",
		"help", "history", "exit", "quit",
	}
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToLower(cmd), prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
