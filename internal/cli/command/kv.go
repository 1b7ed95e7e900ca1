package command

import (
	"github.com/urfave/cli/v2"
)

// PingCommand checks server liveness.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check server liveness",
		ArgsUsage: "[message]",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 0, 1, "ping [message]")
			if err != nil {
				return err
			}
			return runOne(c, append([]string{"PING"}, args...)...)
		},
	}
}

// EchoCommand echoes a message back from the server.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Echo a message back from the server",
		ArgsUsage: "<message>",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 1, 1, "echo <message>")
			if err != nil {
				return err
			}
			return runOne(c, "ECHO", args[0])
		},
	}
}

// GetCommand fetches the value of a key.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 1, 1, "get <key>")
			if err != nil {
				return err
			}
			return runOne(c, "GET", args[0])
		},
	}
}

// SetCommand stores a key-value pair.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a value",
		ArgsUsage: "<key> <value>",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 2, 2, "set <key> <value>")
			if err != nil {
				return err
			}
			return runOne(c, "SET", args[0], args[1])
		},
	}
}

// DelCommand removes a key.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Usage:     "Delete a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 1, 1, "del <key>")
			if err != nil {
				return err
			}
			return runOne(c, "DEL", args[0])
		},
	}
}

// ExistsCommand reports whether a key exists.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Check whether a key exists",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			args, err := ArgsOrUsage(c, 1, 1, "exists <key>")
			if err != nil {
				return err
			}
			return runOne(c, "EXISTS", args[0])
		},
	}
}
