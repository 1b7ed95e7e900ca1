// Package config defines the keyden-server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for keyden-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Limits LimitsSection `koanf:"limits"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Listen ListenConfig `koanf:"listen"`
	Admin  AdminConfig  `koanf:"admin"`
}

// ListenConfig configures the wire protocol listener.
type ListenConfig struct {
	// Addr is the TCP listen address.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading the remainder of a started command.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds the gap between commands on an idle connection.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum number of commands per second per client
	// IP. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// AdminConfig configures the admin HTTP listener (health, metrics).
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LimitsSection bounds request framing to protect against hostile
// peers declaring absurd lengths.
type LimitsSection struct {
	// MaxArrayLen limits the number of elements in a request array.
	MaxArrayLen int `koanf:"max_array_len"`

	// MaxBulkLen limits the size of a single bulk string in bytes.
	MaxBulkLen int `koanf:"max_bulk_len"`

	// MaxInlineLen limits inline command line length in bytes.
	MaxInlineLen int `koanf:"max_inline_len"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
