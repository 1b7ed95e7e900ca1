// Package repl provides the interactive REPL mode for keyden-cli.
//
// The loop reads whitespace-separated commands from the prompt, hands
// them to an executor callback, and prints the result. Command
// history persists across sessions in ~/.keyden/history.
package repl
