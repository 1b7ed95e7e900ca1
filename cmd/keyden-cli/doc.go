// Package main provides the entry point for keyden-cli.
//
// The CLI tool provides command-line access to a keyden server:
//
//   - Key-value operations (get, set, del, exists)
//   - Liveness checks (ping, echo)
//   - Interactive REPL mode
//
// Usage:
//
//	keyden-cli [command] [flags]
//	keyden-cli --server 127.0.0.1:4200 set greeting hello
//	keyden-cli repl
package main
