package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Key names whose values are credentials and must never be logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

// Key names that carry client payloads. Their values are truncated.
var payloadKeys = map[string]struct{}{
	"value":   {},
	"payload": {},
	"message": {},
	"args":    {},
}

// MaxPayloadLen is the longest payload value written to the log verbatim.
const MaxPayloadLen = 64

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks credentials and shortens payload attributes.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if _, ok := payloadKeys[strings.ToLower(a.Key)]; ok {
			return slog.String(a.Key, Truncate(s, MaxPayloadLen))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// Truncate shortens s to at most n bytes plus a marker of how much was cut.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n] + "...(+" + strconv.Itoa(len(s)-n) + " bytes)"
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
