// Package main provides the entry point for keyden-server.
//
// The server is the keyden service process:
//
//   - TCP listener speaking the keyden wire protocol
//   - Optional HTTP admin listener (health, Prometheus metrics)
//   - Configuration via YAML file and KEYDEN_ environment variables
//   - Runtime log level reload on configuration file changes
//
// Usage:
//
//	keyden-server [flags]
//	keyden-server --config /path/to/config.yaml
package main
