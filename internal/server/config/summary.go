package config

// LogFields returns the effective configuration as alternating key/value
// arguments for a structured log call.
func LogFields(cfg *ServerConfig) []any {
	return []any{
		"redis_addr", cfg.Server.Redis.Addr,
		"max_connections", cfg.Server.Redis.MaxConnections,
		"rate_limit", cfg.Server.Redis.RateLimit,
		"idle_timeout", cfg.Server.Redis.IdleTimeout,
		"write_timeout", cfg.Server.Redis.WriteTimeout,
		"metrics_addr", cfg.Server.Metrics.Addr,
		"shards", cfg.Storage.Shards,
		"janitor_interval", cfg.Storage.JanitorInterval,
		"log_level", cfg.Log.Level,
		"log_format", cfg.Log.Format,
	}
}
