package command

import (
	"errors"
	"fmt"
)

// Error is a request that could not be mapped to a command.
type Error struct {
	Code    string   // Stable identifier, e.g. "unknown_command"
	Message string   // Reply text without the "ERR " prefix
	Input   []string // Offending request, if available
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "command: " + e.Message
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Reply returns the text sent to the client in an error reply.
func (e *Error) Reply() string {
	return "ERR " + e.Message
}

func (e *Error) with(input []string, format string, args ...any) *Error {
	return &Error{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Input:   input,
	}
}

var (
	// ErrUnknownCommand indicates an unsupported verb.
	ErrUnknownCommand = &Error{Code: "unknown_command", Message: "unknown command"}

	// ErrWrongArity indicates a supported verb with the wrong argument count.
	ErrWrongArity = &Error{Code: "wrong_arity", Message: "wrong number of arguments"}

	// ErrSyntax indicates an unrecognized option.
	ErrSyntax = &Error{Code: "syntax", Message: "syntax error"}

	// ErrNotInteger indicates an expiry amount that is not a valid integer.
	ErrNotInteger = &Error{Code: "not_integer", Message: "value is not an integer or out of range"}

	// ErrInvalidExpire indicates an expiry amount that is not positive or
	// too large.
	ErrInvalidExpire = &Error{Code: "invalid_expire", Message: "invalid expire time in 'set' command"}

	// ErrInvalidFormat indicates a request that is not a flat array of bulk
	// strings.
	ErrInvalidFormat = &Error{Code: "invalid_format", Message: "invalid command format"}
)

// Code returns the code of a command error, or "" when err is not one.
func Code(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
