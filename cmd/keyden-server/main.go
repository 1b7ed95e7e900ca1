// Package main provides the entry point for keyden-server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/keyden/keyden-go/internal/infra/buildinfo"
	"github.com/keyden/keyden-go/internal/infra/confloader"
	"github.com/keyden/keyden-go/internal/infra/shutdown"
	"github.com/keyden/keyden-go/internal/server/adminserver"
	"github.com/keyden/keyden-go/internal/server/config"
	"github.com/keyden/keyden-go/internal/server/respserver"
	"github.com/keyden/keyden-go/internal/storage/memory"
	"github.com/keyden/keyden-go/internal/telemetry/logger"
	"github.com/keyden/keyden-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		listenAddr  = flag.String("addr", "", "Listen address (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("keyden-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile, *listenAddr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting keyden-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	store := memory.New()

	metrics := metric.NewRegistry()
	metrics.RegisterKeyCount(func() float64 {
		return float64(store.Len())
	})

	srv := respserver.New(&respserver.Config{
		Addr:         cfg.Server.Listen.Addr,
		ReadTimeout:  cfg.Server.Listen.ReadTimeout,
		WriteTimeout: cfg.Server.Listen.WriteTimeout,
		IdleTimeout:  cfg.Server.Listen.IdleTimeout,
		RateLimit:    cfg.Server.Listen.RateLimit,
		Limits: respserver.Limits{
			MaxArrayLen:  cfg.Limits.MaxArrayLen,
			MaxBulkLen:   cfg.Limits.MaxBulkLen,
			MaxInlineLen: cfg.Limits.MaxInlineLen,
		},
	}, store, log, metrics)

	shutdownHandler := shutdown.NewHandler(30*time.Second, shutdown.WithLogger(log))

	if err := srv.Start(context.Background()); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown("server", srv.Shutdown)

	if cfg.Server.Admin.Enabled {
		admin := adminserver.New(adminserver.Config{
			Addr:     cfg.Server.Admin.Addr,
			KeyCount: store.Len,
		}, metrics, log)

		if err := admin.Start(); err != nil {
			return fmt.Errorf("start admin server: %w", err)
		}
		shutdownHandler.OnShutdown("admin-server", admin.Shutdown)
	}

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started", "addr", srv.Addr())
	if err := shutdownHandler.Wait(); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file, environment, and flags.
func loadConfig(configFile, listenAddr string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if listenAddr != "" {
		cfg.Server.Listen.Addr = listenAddr
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and sets it as the
// process default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log, nil
}

// watchConfig reloads the log level when the configuration file
// changes. Other settings require a restart.
func watchConfig(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(path string) {
		cfg := config.Default()
		loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := config.Verify(cfg); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}

		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})

	if err := watcher.Watch(configFile); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.StartAsync()

	return watcher, nil
}
