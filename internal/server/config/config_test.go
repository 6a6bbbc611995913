package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if cfg.Server.Redis.MaxConnections != 0 || cfg.Server.Redis.RateLimit != 0 {
		t.Error("limits should be disabled by default")
	}
	if cfg.Server.Redis.IdleTimeout != 0 || cfg.Server.Redis.WriteTimeout != 0 {
		t.Error("timeouts should be disabled by default")
	}
	if cfg.Server.Metrics.Addr != "" {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Storage.Shards != DefaultShards {
		t.Errorf("Shards = %d, want %d", cfg.Storage.Shards, DefaultShards)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"empty addr", func(c *ServerConfig) { c.Server.Redis.Addr = "" }, "server.redis.addr is required"},
		{"addr without port", func(c *ServerConfig) { c.Server.Redis.Addr = "localhost" }, "server.redis.addr"},
		{"bad port", func(c *ServerConfig) { c.Server.Redis.Addr = "127.0.0.1:70000" }, "invalid port"},
		{"negative max conns", func(c *ServerConfig) { c.Server.Redis.MaxConnections = -1 }, "max_connections"},
		{"negative rate", func(c *ServerConfig) { c.Server.Redis.RateLimit = -1 }, "rate_limit"},
		{"negative timeout", func(c *ServerConfig) { c.Server.Redis.IdleTimeout = -time.Second }, "timeouts"},
		{
			"metrics conflict",
			func(c *ServerConfig) { c.Server.Metrics.Addr = c.Server.Redis.Addr },
			"conflicts",
		},
		{"bad metrics addr", func(c *ServerConfig) { c.Server.Metrics.Addr = ":x" }, "server.metrics.addr"},
		{"zero shards", func(c *ServerConfig) { c.Storage.Shards = 0 }, "storage.shards"},
		{"too many shards", func(c *ServerConfig) { c.Storage.Shards = MaxShards + 1 }, "storage.shards"},
		{"negative janitor", func(c *ServerConfig) { c.Storage.JanitorInterval = -1 }, "janitor_interval"},
		{"bad level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_ValidOverrides(t *testing.T) {
	cfg := Default()
	cfg.Server.Redis.Addr = ":0"
	cfg.Server.Metrics.Addr = "127.0.0.1:9121"
	cfg.Server.Redis.MaxConnections = 100
	cfg.Log.Format = "JSON"
	cfg.Log.Level = "debug"

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() = %v", err)
	}
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"6379", 6379, false},
		{"0", 0, false},
		{"65535", 65535, false},
		{"65536", 0, true},
		{"-1", 0, true},
		{"redis", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePort(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetRedisPort(t *testing.T) {
	cfg := Default()
	if err := SetRedisPort(cfg, 7000); err != nil {
		t.Fatalf("SetRedisPort: %v", err)
	}
	if cfg.Server.Redis.Addr != "127.0.0.1:7000" {
		t.Errorf("Addr = %q", cfg.Server.Redis.Addr)
	}

	cfg.Server.Redis.Addr = "[::1]:6379"
	if err := SetRedisPort(cfg, 6380); err != nil {
		t.Fatalf("SetRedisPort: %v", err)
	}
	if cfg.Server.Redis.Addr != "[::1]:6380" {
		t.Errorf("Addr = %q", cfg.Server.Redis.Addr)
	}

	if err := SetRedisPort(cfg, 70000); err == nil {
		t.Error("SetRedisPort(70000) should fail")
	}
}

func TestLogFields(t *testing.T) {
	fields := LogFields(Default())
	if len(fields)%2 != 0 {
		t.Fatalf("LogFields returned odd number of elements: %d", len(fields))
	}
	if fields[0] != "redis_addr" || fields[1] != DefaultRedisAddr {
		t.Errorf("first field = %v=%v", fields[0], fields[1])
	}
}
