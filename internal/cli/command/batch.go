package command

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hail-framework/framework-sub003/internal/cli/repl"
	"github.com/hail-framework/framework-sub003/internal/telemetry/logger"
)

// PipelineCommand sends commands read from stdin in one round trip.
func PipelineCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Pipeline commands read from stdin, one per line",
		Action: func(c *cli.Context) error {
			return runBatch(c, false)
		},
	}
}

// MultiCommand wraps commands read from stdin in MULTI/EXEC.
func MultiCommand() *cli.Command {
	return &cli.Command{
		Name:  "multi",
		Usage: "Run commands read from stdin as one transaction",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "immediate",
				Usage: "send each command as it is read instead of pipelining",
			},
		},
		Action: func(c *cli.Context) error {
			return runBatch(c, true)
		},
	}
}

// readCommands splits every non-empty, non-comment line of r.
func readCommands(r io.Reader) ([][]string, error) {
	var out [][]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := repl.Split(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, fields)
	}
	return out, scanner.Err()
}

func runBatch(c *cli.Context, tx bool) error {
	sess, err := getSession(c)
	if err != nil {
		return err
	}
	cmds, err := readCommands(c.App.Reader)
	if err != nil {
		return err
	}

	ctx := c.Context
	cl := sess.client
	immediate := tx && c.Bool("immediate")

	if immediate {
		err = cl.Multi(ctx)
	} else {
		err = cl.Pipeline()
		if err == nil && tx {
			err = cl.Multi(ctx)
		}
	}
	if err != nil {
		return err
	}

	for _, words := range cmds {
		if _, err := cl.Execute(ctx, strings.ToLower(words[0]), stringsToArgs(words[1:])...); err != nil {
			_ = cl.Discard(ctx)
			return fmt.Errorf("%s: %w", words[0], err)
		}
	}
	logger.L(logger.WithConnID(ctx, cl.ConnID())).Debug("executing batch",
		"commands", len(cmds), "transaction", tx, "immediate", immediate)

	results, err := cl.Exec(ctx)
	if err != nil {
		return err
	}
	return sess.formatter.Format(c.App.Writer, results)
}
