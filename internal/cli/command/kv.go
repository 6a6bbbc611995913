package command

import (
	"errors"
	"strconv"

	"github.com/urfave/cli/v2"
)

// The subcommands forward their arguments unchecked. Arity and TTL
// validation belong to the server, which reports them as error replies.

// PingCommand returns the ping subcommand.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server answers",
		Action: func(c *cli.Context) error {
			return run(c, prepend("PING", c.Args().Slice())...)
		},
	}
}

// EchoCommand returns the echo subcommand.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Have the server return a message",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			return run(c, prepend("ECHO", c.Args().Slice())...)
		},
	}
}

// GetCommand returns the get subcommand.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			return run(c, prepend("GET", c.Args().Slice())...)
		},
	}
}

// SetCommand returns the set subcommand.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key, optionally with a time to live",
		ArgsUsage: "<key> <value> [EX seconds | PX milliseconds]",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "expire after this many seconds",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "expire after this many milliseconds",
			},
		},
		Action: func(c *cli.Context) error {
			args, err := setArgs(c)
			if err != nil {
				return err
			}
			return run(c, args...)
		},
	}
}

// setArgs builds the SET command line from the positional arguments and
// the --ex or --px flag.
func setArgs(c *cli.Context) ([]string, error) {
	ex, px := c.IsSet("ex"), c.IsSet("px")
	if ex && px {
		return nil, errors.New("--ex and --px are mutually exclusive")
	}
	if (ex || px) && c.NArg() != 2 {
		return nil, errors.New("--ex and --px cannot be combined with an inline expiry")
	}

	args := prepend("SET", c.Args().Slice())
	switch {
	case ex:
		args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
	case px:
		args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
	}
	return args, nil
}

func prepend(verb string, args []string) []string {
	return append([]string{verb}, args...)
}
