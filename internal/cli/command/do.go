package command

import (
	"errors"
	"strings"

	"github.com/urfave/cli/v2"
)

// DoCommand runs a single command.
func DoCommand() *cli.Command {
	return &cli.Command{
		Name:      "do",
		Usage:     "Run one command and print its reply",
		ArgsUsage: "COMMAND [ARG...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "repeat",
				Aliases: []string{"r"},
				Usage:   "run the command this many times",
				Value:   1,
			},
		},
		Action: doAction,
	}
}

func doAction(c *cli.Context) error {
	sess, err := getSession(c)
	if err != nil {
		return err
	}
	words := c.Args().Slice()
	if len(words) == 0 {
		return errors.New("do: command required")
	}

	name := strings.ToLower(words[0])
	args := stringsToArgs(words[1:])
	for i := 0; i < c.Int("repeat"); i++ {
		reply, err := sess.client.Execute(c.Context, name, args...)
		if err != nil {
			return err
		}
		if err := sess.formatter.Format(c.App.Writer, reply); err != nil {
			return err
		}
	}
	return nil
}
