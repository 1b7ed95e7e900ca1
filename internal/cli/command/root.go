package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/keyden/keyden-go/internal/cli/client"
	"github.com/keyden/keyden-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "keyden-cli",
		Usage:   "keyden command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			DelCommand(),
			ExistsCommand(),
			REPLCommand(),
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "keyden server address (host:port)",
			EnvVars: []string{"KEYDEN_SERVER"},
			Value:   "127.0.0.1:4200",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "per-request timeout",
			Value:   client.DefaultTimeout,
		},
	}
}

// connect dials the server named by the global flags.
func connect(c *cli.Context) (*client.Client, error) {
	addr := c.String("server")
	timeout := c.Duration("timeout")

	cl, err := client.Dial(addr, client.WithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// runOne dials, executes a single command, prints the reply, and
// exits non-zero on error replies.
func runOne(c *cli.Context, args ...string) error {
	cl, err := connect(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer cl.Close()

	reply, err := cl.Do(args...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	out := FormatReply(reply)
	if reply.IsError() {
		fmt.Fprintln(c.App.ErrWriter, out)
		return cli.Exit("", 1)
	}

	fmt.Fprintln(c.App.Writer, out)
	return nil
}

// FormatReply renders a reply the way interactive users expect:
// statuses and bulks verbatim, integers tagged, nil spelled out.
func FormatReply(r client.Reply) string {
	switch r.Kind {
	case client.SimpleReply, client.BulkReply:
		return r.Str
	case client.ErrorReply:
		return "(error) " + r.Str
	case client.IntegerReply:
		return fmt.Sprintf("(integer) %d", r.Int)
	case client.NilReply:
		return "(nil)"
	default:
		return fmt.Sprintf("(unknown reply kind %d)", r.Kind)
	}
}

// ArgsOrUsage returns the positional arguments if the count matches,
// otherwise an exit error showing usage.
func ArgsOrUsage(c *cli.Context, min, max int, usage string) ([]string, error) {
	args := c.Args().Slice()
	if len(args) < min || len(args) > max {
		return nil, cli.Exit(fmt.Sprintf("usage: keyden-cli %s", usage), 2)
	}
	return args, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
