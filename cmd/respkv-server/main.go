package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "respkv-server",
		Usage:           "in-memory key/value server speaking RESP",
		UsageText:       "respkv-server [options] [port]",
		Version:         buildinfo.String(),
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "RESP listen port (default 6379)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", c.Args().Slice()[1:])
	}

	configFile := c.String("config")
	cfg, err := loadConfig(configFile, portOverride(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting respkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Info("effective configuration", config.LogFields(cfg)...)

	metrics := metric.NewRegistry()

	store := memory.New(
		memory.WithShardCount(cfg.Storage.Shards),
		memory.WithEvictionHook(metrics.ObserveExpired),
	)
	metrics.MustRegister(metric.NewKeyspaceCollector(store))

	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	ctx := shutdownHandler.Context()

	go store.RunJanitor(ctx, cfg.Storage.JanitorInterval)

	srv := redisserver.New(redisConfig(cfg), store, log, metrics)
	if err := srv.Listen(); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Redis.Addr, err)
	}

	// Register shutdown hooks (reverse order of startup)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server", "active_connections", srv.ActiveConnections())
		return srv.Shutdown(ctx)
	})

	if cfg.Server.Metrics.Addr != "" {
		metricsServer, err := startMetrics(cfg.Server.Metrics.Addr, metrics, log, shutdownHandler)
		if err != nil {
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchConfig(configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Error("redis server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// portOverride returns the port from --port or the positional argument,
// or "" when neither is given. The flag wins.
func portOverride(c *cli.Context) string {
	if c.IsSet("port") {
		return fmt.Sprint(c.Int("port"))
	}
	return c.Args().First()
}

// loadConfig loads configuration from file and environment, then applies
// the command line port.
func loadConfig(configFile, port string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if port != "" {
		n, err := config.ParsePort(port)
		if err != nil {
			return nil, err
		}
		if err := config.SetRedisPort(cfg, n); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func redisConfig(cfg *config.ServerConfig) *redisserver.Config {
	rc := redisserver.DefaultConfig()
	rc.Address = cfg.Server.Redis.Addr
	rc.MaxConnections = cfg.Server.Redis.MaxConnections
	rc.RateLimit = cfg.Server.Redis.RateLimit
	rc.IdleTimeout = cfg.Server.Redis.IdleTimeout
	rc.WriteTimeout = cfg.Server.Redis.WriteTimeout
	if cfg.Server.Redis.ReadBufferSize > 0 {
		rc.ReadBufferSize = cfg.Server.Redis.ReadBufferSize
	}
	return rc
}

// startMetrics binds addr and serves /metrics in the background.
func startMetrics(addr string, metrics *metric.Registry, log logger.Logger, h *shutdown.Handler) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
			h.Trigger()
		}
	}()
	return server, nil
}

// watchConfig reloads the file on change and applies the settings that can
// change at runtime. Only the log level is hot; other changes are logged and
// take effect on restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		cfg, err := loadConfig(changed, "")
		if err != nil {
			log.Warn("config reload rejected", "path", changed, "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload rejected", "path", changed, "error", err)
			return
		}
		log.Info("config reloaded", "path", changed, "log_level", logger.GetLevel())
	})
	watcher.StartAsync()
	return watcher, nil
}
