package command

import (
	"github.com/urfave/cli/v2"

	"github.com/hail-framework/framework-sub003/internal/cli/repl"
)

// REPLCommand starts the interactive shell.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start an interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "history file, empty to disable",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	sess, err := getSession(c)
	if err != nil {
		return err
	}

	historyFile := repl.DefaultHistoryFile()
	if c.IsSet("history-file") {
		historyFile = c.String("history-file")
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		sess.log.Warn("failed to load history", "file", historyFile, "error", err)
	}

	stopWatch := watchConfig(sess)
	defer stopWatch()

	r := repl.New(sess.client,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithFormatter(sess.formatter),
		repl.WithHistory(history),
		repl.WithPrompt(sess.cfg.Address+"> "),
		repl.WithLogger(sess.log),
	)
	return r.Run(c.Context)
}
