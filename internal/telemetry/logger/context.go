package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey     contextKey = "respkv.logger"
	connIDKey     contextKey = "respkv.conn_id"
	remoteAddrKey contextKey = "respkv.remote_addr"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithConnID adds a connection ID to the context.
func WithConnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connIDKey, id)
}

// ConnIDFromContext extracts the connection ID from context.
func ConnIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(connIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRemoteAddr adds the peer address of a connection to the context.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey, addr)
}

// RemoteAddrFromContext extracts the peer address from context.
func RemoteAddrFromContext(ctx context.Context) string {
	if addr, ok := ctx.Value(remoteAddrKey).(string); ok {
		return addr
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the connection ID and peer address from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if id := ConnIDFromContext(ctx); id != "" {
		l = l.With("conn_id", id)
	}
	if addr := RemoteAddrFromContext(ctx); addr != "" {
		l = l.With("remote", addr)
	}

	return l
}
