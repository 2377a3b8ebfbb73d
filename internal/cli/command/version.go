package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hail-framework/framework-sub003/internal/cli/output"
	"github.com/hail-framework/framework-sub003/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			sess, err := getSession(c)
			if err != nil {
				return err
			}
			if format, _ := output.ParseFormat(sess.cfg.Output); format == output.FormatText {
				_, err := fmt.Fprintf(c.App.Writer, "%s %s\n", c.App.Name, buildinfo.String())
				return err
			}
			return sess.formatter.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
