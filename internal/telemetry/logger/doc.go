// Package logger provides structured logging for keyden.
//
// It wraps the standard library log/slog to provide structured JSON
// logging with runtime-adjustable level.
//
// Features:
//   - JSON structured logging (default), text format for development
//   - Dynamic log level (SetLevel), shared across all loggers
//   - Context-aware logging with connection ID propagation
package logger
