package config

import "time"

// Default configuration values.
const (
	DefaultRedisHost      = "127.0.0.1"
	DefaultRedisPort      = 6379
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultReadBufferSize = 4096

	DefaultShards          = 16
	DefaultJanitorInterval = time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:           DefaultRedisAddr,
				ReadBufferSize: DefaultReadBufferSize,
			},
		},
		Storage: StorageSection{
			Shards:          DefaultShards,
			JanitorInterval: DefaultJanitorInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
