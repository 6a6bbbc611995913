package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/config"
	"github.com/yndnr/respkv/internal/cli/connection"
	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/resp"
)

const cliConfigKey = "cliConfig"

// ErrServerReply marks a command whose reply was a server error. The reply
// has already been printed, so callers only need to set the exit status.
var ErrServerReply = errors.New("server replied with an error")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:            "respkv-cli",
		Usage:           "command-line client for respkv",
		UsageText:       "respkv-cli [global options] [command [arguments...]]",
		Version:         buildinfo.String(),
		Flags:           globalFlags(),
		HideHelpCommand: true,
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			ReplCommand(),
		},
		Before: loadCLIConfig,
		Action: rawAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"RESPKV_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"H"},
			Usage:   "server host",
			EnvVars: []string{"RESPKV_CLI_HOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port",
			EnvVars: []string{"RESPKV_CLI_PORT"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "per-command timeout, 0 waits forever",
			EnvVars: []string{"RESPKV_CLI_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, json, yaml",
			EnvVars: []string{"RESPKV_CLI_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "print replies without quotes or type markers (text output only)",
		},
	}
}

// GlobalFlags holds the effective connection and output settings.
type GlobalFlags struct {
	Host    string
	Port    int
	Timeout time.Duration
	Output  output.Format
	Raw     bool

	HistoryFile string
}

// Addr returns the server address.
func (g *GlobalFlags) Addr() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}

func loadCLIConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[cliConfigKey] = cfg
	return nil
}

// ParseGlobalFlags merges flags and environment over the CLI config file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[cliConfigKey].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	g := &GlobalFlags{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Timeout:     cfg.Timeout,
		Raw:         c.Bool("raw"),
		HistoryFile: cfg.HistoryFile,
	}
	if c.IsSet("host") {
		g.Host = c.String("host")
	}
	if c.IsSet("port") {
		g.Port = c.Int("port")
	}
	if c.IsSet("timeout") {
		g.Timeout = c.Duration("timeout")
	}

	format := cfg.Output
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	g.Output = f

	if g.Port < 1 || g.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", g.Port)
	}
	return g, nil
}

// formatter returns the formatter selected by the global flags.
func (g *GlobalFlags) formatter() output.Formatter {
	if g.Output == output.FormatText {
		return &output.TextFormatter{Raw: g.Raw}
	}
	return output.NewFormatter(g.Output)
}

// dial connects using the global flags.
func dial(c *cli.Context, g *GlobalFlags) (*connection.Client, error) {
	ctx := c.Context
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	return connection.Dial(ctx, g.Addr())
}

// run sends one command and prints the reply to the app writer.
func run(c *cli.Context, args ...string) error {
	g, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	client, err := dial(c, g)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := c.Context
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	v, err := client.Do(ctx, args...)
	if err != nil {
		return err
	}
	if err := g.formatter().Format(writer(c), v); err != nil {
		return err
	}
	if v.Kind == resp.KindError {
		return ErrServerReply
	}
	return nil
}

// rawAction sends the positional arguments as one command, or starts the
// interactive mode when there are none.
func rawAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return replAction(c)
	}
	return run(c, c.Args().Slice()...)
}

func writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
