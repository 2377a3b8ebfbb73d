package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hail-framework/framework-sub003/internal/cli/output"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
)

// Executor runs one command. *client.Client implements it.
type Executor interface {
	Execute(ctx context.Context, name string, args ...any) (any, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
	prompt    string
	log       logger.Logger
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

// WithFormatter sets the reply formatter.
func WithFormatter(f output.Formatter) Option {
	return func(r *REPL) {
		r.formatter = f
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithPrompt sets the prompt, e.g. "127.0.0.1:6379> ".
func WithPrompt(p string) Option {
	return func(r *REPL) {
		r.prompt = p
	}
}

// WithCompleter replaces the command completer used by help.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) {
		r.completer = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *REPL) {
		r.log = l
	}
}

// New creates a REPL that sends commands to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		exec:      exec,
		formatter: &output.TextFormatter{},
		completer: NewCompleter(),
		history:   NewHistory(""),
		prompt:    "redis> ",
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads commands until EOF, exit or quit, or until ctx is done.
// Command errors are printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	defer func() {
		if err := r.history.Save(); err != nil {
			r.log.Warn("failed to save history", "error", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && err != io.EOF {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(logger.RedactString(line))

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	fields, err := Split(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	switch name {
	case "help":
		prefix := ""
		if len(fields) > 1 {
			prefix = fields[1]
		}
		for _, c := range r.completer.Complete(prefix) {
			fmt.Fprintln(r.output, c)
		}
		return nil
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return nil
	}

	args := make([]any, len(fields)-1)
	for i, f := range fields[1:] {
		args[i] = f
	}
	reply, err := r.exec.Execute(ctx, name, args...)
	if err != nil {
		return r.formatter.Format(r.output, err)
	}
	return r.formatter.Format(r.output, reply)
}
