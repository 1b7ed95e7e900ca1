// Package respserver implements keyden's wire protocol server.
//
// The protocol is a RESP-style framing: requests arrive as arrays of
// length-prefixed bulk strings, responses are simple strings, errors,
// integers or bulk strings, each terminated by CRLF. Inline commands
// ("GET foo\r\n") are accepted for telnet-style clients.
//
// The package is split along the pipeline:
//
//   - resp.go: the wire codec. Decode parses one command from an
//     accumulating byte buffer; Reply serializes responses.
//   - command.go: the dispatcher. Maps a parsed command to one store
//     operation and builds the reply.
//   - server.go: the TCP listener and per-connection handler loop.
//
// A single memory.Store instance is shared by every connection; the
// store's own locking is the only cross-connection coordination.
package respserver
