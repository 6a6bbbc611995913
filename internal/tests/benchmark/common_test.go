package benchmark

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// newKey generates a unique, roughly sortable key.
func newKey() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, _ := ulid.New(ulid.Timestamp(time.Now()), entropy)
	return "key:" + strings.ToLower(id.String())
}

// newValue returns a value of n bytes.
func newValue(n int) string {
	return strings.Repeat("v", n)
}

// prefillStore prefills a store with count keys, a tenth of them with a TTL.
func prefillStore(store *memory.Store, count int) []string {
	keys := make([]string, count)
	for i := 0; i < count; i++ {
		keys[i] = newKey()
		if i%10 == 0 {
			_ = store.SetWithExpiry(keys[i], newValue(64), 1, memory.Seconds)
			continue
		}
		store.Set(keys[i], newValue(64))
	}
	return keys
}

// startServer starts a server on a loopback port for the benchmark.
func startServer(b *testing.B) string {
	b.Helper()

	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := redisserver.New(cfg, memory.New(), nil, nil)
	if err := srv.Listen(); err != nil {
		b.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()

	b.Cleanup(func() {
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	})
	return srv.Addr().String()
}

func countName(n int) string {
	return fmt.Sprintf("keys=%d", n)
}
