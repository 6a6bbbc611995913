package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/repl"
)

// ReplCommand returns the interactive mode subcommand.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start interactive mode",
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	client, err := dial(c, g)
	if err != nil {
		return err
	}
	defer client.Close()

	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}

	r := repl.New(client,
		repl.WithIO(in, writer(c)),
		repl.WithFormatter(g.formatter()),
		repl.WithHistory(repl.NewHistory(g.HistoryFile)),
		repl.WithPrompt(fmt.Sprintf("%s> ", g.Addr())),
		repl.WithTimeout(g.Timeout),
	)
	return r.Run(c.Context)
}
