package command

import (
	"github.com/yndnr/respkv/internal/storage/memory"
)

// Command is one of Ping, Echo, Get, Set or SetWithExpiry.
type Command interface {
	// Name returns the lower-case verb.
	Name() string

	command()
}

// Ping replies PONG.
type Ping struct{}

// Echo replies with its message.
type Echo struct {
	Message string
}

// Get reads a key.
type Get struct {
	Key string
}

// Set writes a key with no expiry.
type Set struct {
	Key   string
	Value string
}

// SetWithExpiry writes a key that expires TTL units from now.
type SetWithExpiry struct {
	Key   string
	Value string
	TTL   int64
	Unit  memory.TTLUnit
}

func (Ping) Name() string          { return "ping" }
func (Echo) Name() string          { return "echo" }
func (Get) Name() string           { return "get" }
func (Set) Name() string           { return "set" }
func (SetWithExpiry) Name() string { return "set" }

func (Ping) command()          {}
func (Echo) command()          {}
func (Get) command()           {}
func (Set) command()           {}
func (SetWithExpiry) command() {}
