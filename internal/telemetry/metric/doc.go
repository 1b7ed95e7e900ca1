// Package metric provides Prometheus metrics for keyden.
//
// It exposes connection counts, per-command throughput and latency, and
// store size in Prometheus format via the admin HTTP listener.
package metric
