// Package config defines the keyden-server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLimits(&cfg.Limits); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Listen.Addr == "" {
		return errors.New("server.listen.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Listen.Addr); err != nil {
		return fmt.Errorf("server.listen.addr %q: %w", cfg.Listen.Addr, err)
	}
	if cfg.Listen.RateLimit < 0 {
		return errors.New("server.listen.rate_limit must not be negative")
	}
	if cfg.Admin.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Admin.Addr); err != nil {
			return fmt.Errorf("server.admin.addr %q: %w", cfg.Admin.Addr, err)
		}
	}
	return nil
}

func verifyLimits(cfg *LimitsSection) error {
	if cfg.MaxArrayLen <= 0 {
		return errors.New("limits.max_array_len must be positive")
	}
	if cfg.MaxBulkLen <= 0 {
		return errors.New("limits.max_bulk_len must be positive")
	}
	if cfg.MaxInlineLen <= 0 {
		return errors.New("limits.max_inline_len must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
