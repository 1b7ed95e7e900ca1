package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/keyden/keyden-go/internal/cli/client"
	"github.com/keyden/keyden-go/internal/cli/repl"
)

// REPLCommand starts an interactive session against the server.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"i"},
		Usage:   "Start an interactive session",
		Action: func(c *cli.Context) error {
			cl, err := connect(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer cl.Close()

			fmt.Fprintf(c.App.Writer, "connected to %s\n", c.String("server"))

			r := repl.New(replExecutor(cl),
				repl.WithInput(c.App.Reader),
				repl.WithOutput(c.App.Writer),
			)
			return r.Run()
		},
	}
}

// replExecutor adapts a client connection to the REPL's executor
// contract.
func replExecutor(cl *client.Client) repl.Executor {
	return func(args []string) (string, error) {
		reply, err := cl.Do(args...)
		if err != nil {
			return "", err
		}
		return FormatReply(reply), nil
	}
}
