// Package config defines the keyden-server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultListenAddr = "127.0.0.1:4200"
	DefaultAdminAddr  = "127.0.0.1:4280"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute

	DefaultMaxArrayLen  = 1024
	DefaultMaxBulkLen   = 512 * 1024
	DefaultMaxInlineLen = 4 * 1024

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Listen: ListenConfig{
				Addr:         DefaultListenAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
				RateLimit:    0,
			},
			Admin: AdminConfig{
				Enabled: false,
				Addr:    DefaultAdminAddr,
			},
		},
		Limits: LimitsSection{
			MaxArrayLen:  DefaultMaxArrayLen,
			MaxBulkLen:   DefaultMaxBulkLen,
			MaxInlineLen: DefaultMaxInlineLen,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
