package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one parsed command line and returns printable output.
type Executor func(args []string) (string, error)

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input   io.Reader
	output  io.Writer
	prompt  string
	execute Executor
	history *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithInput sets the input reader.
func WithInput(r io.Reader) Option {
	return func(rp *REPL) {
		rp.input = r
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(rp *REPL) {
		rp.output = w
	}
}

// WithPrompt sets the prompt string.
func WithPrompt(prompt string) Option {
	return func(rp *REPL) {
		rp.prompt = prompt
	}
}

// WithHistory sets a preconfigured history store.
func WithHistory(h *History) Option {
	return func(rp *REPL) {
		rp.history = h
	}
}

// New creates a new REPL driving the given executor.
func New(execute Executor, opts ...Option) *REPL {
	r := &REPL{
		input:   os.Stdin,
		output:  os.Stdout,
		prompt:  "keyden> ",
		execute: execute,
		history: NewHistory(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the REPL loop. It returns when the input reaches EOF or
// the user types exit or quit.
func (r *REPL) Run() error {
	r.history.Load()
	defer r.history.Save()

	reader := bufio.NewReader(r.input)

	for {
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.history.Add(line)

		if line == "exit" || line == "quit" {
			return nil
		}

		out, err := r.execute(strings.Fields(line))
		if err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(r.output, out)
	}
}
