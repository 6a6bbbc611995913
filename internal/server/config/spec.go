package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// MaxConnections caps concurrently served clients. 0 is unlimited.
	MaxConnections int `koanf:"max_connections"`

	// RateLimit is commands per second per connection. 0 is unlimited.
	RateLimit int `koanf:"rate_limit"`

	ReadBufferSize int           `koanf:"read_buffer_size"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// StorageSection configures the keyspace.
type StorageSection struct {
	Shards int `koanf:"shards"`

	// JanitorInterval is how often expired keys are swept. 0 disables the
	// sweep; expired keys are then only removed when read.
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
