package command

import (
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/resp"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// FromValue maps a decoded request onto a command. The request must be a
// non-empty array of non-null bulk strings.
func FromValue(v resp.Value) (Command, error) {
	if v.Kind != resp.KindArray {
		return nil, ErrInvalidFormat.with(nil, "invalid command format: expected array, got %s", v.Kind)
	}
	if v.Null || len(v.Array) == 0 {
		return nil, ErrInvalidFormat.with(nil, "invalid command format: empty request")
	}

	args := make([]string, len(v.Array))
	for i, elem := range v.Array {
		if elem.Kind != resp.KindBulkString || elem.Null {
			return nil, ErrInvalidFormat.with(nil,
				"invalid command format: argument %d is %s, expected bulk string", i, describe(elem))
		}
		args[i] = string(elem.Bulk)
	}
	return Parse(args)
}

func describe(v resp.Value) string {
	if v.Null {
		return "null " + v.Kind.String()
	}
	return v.Kind.String()
}

// Parse maps a flat request onto a command.
func Parse(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, ErrInvalidFormat.with(args, "invalid command format: empty request")
	}

	verb := strings.ToUpper(args[0])
	switch verb {
	case "PING":
		if len(args) != 1 {
			return nil, wrongArity(args)
		}
		return Ping{}, nil

	case "ECHO":
		if len(args) != 2 {
			return nil, wrongArity(args)
		}
		return Echo{Message: args[1]}, nil

	case "GET":
		if len(args) != 2 {
			return nil, wrongArity(args)
		}
		return Get{Key: args[1]}, nil

	case "SET":
		return parseSet(args)

	default:
		return nil, ErrUnknownCommand.with(args, "unknown command '%s'", args[0])
	}
}

func parseSet(args []string) (Command, error) {
	switch {
	case len(args) < 3:
		return nil, wrongArity(args)
	case len(args) == 3:
		return Set{Key: args[1], Value: args[2]}, nil
	case len(args) != 5:
		return nil, ErrSyntax.with(args, "syntax error")
	}

	var unit memory.TTLUnit
	switch strings.ToUpper(args[3]) {
	case "EX":
		unit = memory.Seconds
	case "PX":
		unit = memory.Milliseconds
	default:
		return nil, ErrSyntax.with(args, "syntax error")
	}

	amount, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil {
		return nil, ErrNotInteger.with(args, "value is not an integer or out of range")
	}
	if _, err := unit.ToMillis(amount); err != nil {
		return nil, ErrInvalidExpire.with(args, "invalid expire time in 'set' command")
	}

	return SetWithExpiry{Key: args[1], Value: args[2], TTL: amount, Unit: unit}, nil
}

func wrongArity(args []string) *Error {
	return ErrWrongArity.with(args, "wrong number of arguments for '%s' command", strings.ToLower(args[0]))
}
