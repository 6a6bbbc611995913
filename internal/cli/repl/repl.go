package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/resp"
)

// Executor sends one command to the server.
type Executor interface {
	Do(ctx context.Context, args ...string) (resp.Value, error)
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithFormatter sets the reply formatter.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) { r.formatter = f }
}

// WithPrompt sets the prompt text.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithTimeout bounds each command. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(r *REPL) { r.timeout = d }
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	input     io.Reader
	output    io.Writer
	formatter output.Formatter
	completer *Completer
	history   *History
	prompt    string
	timeout   time.Duration
}

// New creates a new REPL instance sending commands to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		input:     os.Stdin,
		output:    os.Stdout,
		formatter: &output.TextFormatter{},
		completer: NewCompleter(),
		history:   NewHistory(""),
		prompt:    "respkv> ",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns nil on exit, quit or end of input,
// and the transport error if the connection fails.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(r.input)
	scanner.Buffer(make([]byte, 0, 64*1024), resp.MaxBulkLen)

	for {
		fmt.Fprint(r.output, r.prompt)

		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		done, err := r.execute(ctx, args)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// execute handles local commands and forwards everything else.
func (r *REPL) execute(ctx context.Context, args []string) (bool, error) {
	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true, nil
	case "help":
		r.printHelp(args[1:])
		return false, nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	v, err := r.exec.Do(ctx, args...)
	if err != nil {
		return false, err
	}
	return false, r.formatter.Format(r.output, v)
}

var usage = map[string]string{
	"PING":    "PING                          test the connection",
	"ECHO":    "ECHO message                  return message",
	"GET":     "GET key                       get the value of key",
	"SET":     "SET key value [EX s | PX ms]  set key, optionally with a TTL",
	"help":    "help [prefix]                 list commands",
	"history": "history                       show command history",
	"exit":    "exit                          leave interactive mode",
	"quit":    "quit                          leave interactive mode",
}

func (r *REPL) printHelp(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "no command matches %q\n", prefix)
		return
	}
	for _, cmd := range matches {
		fmt.Fprintln(r.output, usage[cmd])
	}
}
