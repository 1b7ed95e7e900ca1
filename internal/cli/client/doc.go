// Package client provides the wire-protocol client for keyden-cli.
//
// It speaks the same array-of-bulk-strings request format the server
// accepts and parses the five reply forms: simple string, error,
// integer, bulk string, and null bulk.
package client
