// Package logger provides structured logging for respkv.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, handler setup and the dynamic level
//   - context.go: Context-aware logging with connection IDs
//   - redact.go: Credential masking and payload truncation
//
// The level is held in a slog.LevelVar so it can be changed at runtime by a
// configuration reload without rebuilding any logger.
package logger
