// Package adminserver provides the HTTP admin endpoint for keyden.
//
// The admin server is a plain net/http server, separate from the
// key-value listener, exposing:
//
//   - GET /healthz  liveness probe with build information
//   - GET /metrics  Prometheus metrics scrape endpoint
//
// It binds to a loopback address by default and carries no
// authentication; deployments that expose it must front it with
// their own access control.
package adminserver
