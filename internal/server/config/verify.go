package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/yndnr/respkv/internal/telemetry/logger"
)

// MaxShards bounds storage.shards.
const MaxShards = 1 << 12

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}
	if cfg.Redis.MaxConnections < 0 {
		return errors.New("server.redis.max_connections must not be negative")
	}
	if cfg.Redis.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.Redis.ReadBufferSize < 0 {
		return errors.New("server.redis.read_buffer_size must not be negative")
	}
	if cfg.Redis.IdleTimeout < 0 || cfg.Redis.WriteTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}

	if cfg.Metrics.Addr != "" {
		if err := verifyAddr("server.metrics.addr", cfg.Metrics.Addr); err != nil {
			return err
		}
		if cfg.Metrics.Addr == cfg.Redis.Addr {
			return errors.New("server.metrics.addr conflicts with server.redis.addr")
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.Shards < 1 || cfg.Shards > MaxShards {
		return fmt.Errorf("storage.shards must be between 1 and %d", MaxShards)
	}
	if cfg.JanitorInterval < 0 {
		return errors.New("storage.janitor_interval must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console", "json":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of text, json", cfg.Format)
	}
}

func verifyAddr(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", field)
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if _, err := ParsePort(port); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// ParsePort parses a TCP port number. 0 is accepted and asks the kernel for
// a free port.
func ParsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

// SetRedisPort replaces the port of server.redis.addr, keeping its host.
func SetRedisPort(cfg *ServerConfig, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	host, _, err := net.SplitHostPort(cfg.Server.Redis.Addr)
	if err != nil {
		host = DefaultRedisHost
	}
	cfg.Server.Redis.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	return nil
}
