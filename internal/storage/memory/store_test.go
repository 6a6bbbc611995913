package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_SetGet(t *testing.T) {
	store := New()

	if _, ok := store.Get("foo"); ok {
		t.Fatal("Get on empty store should miss")
	}

	store.Set("foo", "bar")
	got, ok := store.Get("foo")
	if !ok || got != "bar" {
		t.Fatalf("Get = %q, %v; want %q, true", got, ok, "bar")
	}

	store.Set("foo", "baz")
	if got, _ := store.Get("foo"); got != "baz" {
		t.Fatalf("Get after overwrite = %q, want %q", got, "baz")
	}

	store.Set("", "")
	if got, ok := store.Get(""); !ok || got != "" {
		t.Fatalf("empty key: Get = %q, %v", got, ok)
	}
}

func TestStore_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock))

	if err := store.SetWithExpiry("k", "v", 50, Milliseconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}

	clock.Advance(49 * time.Millisecond)
	if _, ok := store.Get("k"); !ok {
		t.Fatal("key should be present 1ms before expiry")
	}

	clock.Advance(time.Millisecond)
	if _, ok := store.Get("k"); ok {
		t.Fatal("key should be absent when now == expiry")
	}
	if store.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after read eviction", store.Len())
	}
}

func TestStore_ExpirySeconds(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock))

	if err := store.SetWithExpiry("k", "v", 1, Seconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}

	clock.Advance(999 * time.Millisecond)
	if _, ok := store.Get("k"); !ok {
		t.Fatal("key should be present before 1s")
	}

	clock.Advance(time.Millisecond)
	if _, ok := store.Get("k"); ok {
		t.Fatal("key should be absent after 1s")
	}
}

func TestStore_ExpiryWallClock(t *testing.T) {
	store := New()

	if err := store.SetWithExpiry("key", "value", 50, Milliseconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}
	if got, ok := store.Get("key"); !ok || got != "value" {
		t.Fatalf("immediate Get = %q, %v", got, ok)
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := store.Get("key"); ok {
		t.Fatal("key should be absent after 60ms")
	}
}

func TestStore_OverwriteClearsTTL(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock))

	if err := store.SetWithExpiry("key", "v1", 100000, Milliseconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}
	store.Set("key", "v2")

	clock.Advance(24 * time.Hour)
	got, ok := store.Get("key")
	if !ok || got != "v2" {
		t.Fatalf("Get = %q, %v; want v2, true", got, ok)
	}
	if ttl, ok := store.TTL("key"); !ok || ttl != 0 {
		t.Fatalf("TTL = %v, %v; want 0, true", ttl, ok)
	}
}

func TestStore_SetWithExpiryOverwritesPermanent(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock))

	store.Set("key", "v1")
	if err := store.SetWithExpiry("key", "v2", 10, Milliseconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}

	ttl, ok := store.TTL("key")
	if !ok || ttl != 10*time.Millisecond {
		t.Fatalf("TTL = %v, %v; want 10ms", ttl, ok)
	}

	clock.Advance(10 * time.Millisecond)
	if _, ok := store.Get("key"); ok {
		t.Fatal("key should have expired")
	}
}

func TestStore_InvalidTTL(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		unit   TTLUnit
	}{
		{"zero", 0, Milliseconds},
		{"negative", -5, Seconds},
		{"seconds overflow", math.MaxInt64/1000 + 1, Seconds},
		{"deadline overflow", math.MaxInt64 - 10, Milliseconds},
		{"unknown unit", 10, TTLUnit(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := New()
			store.Set("k", "old")

			err := store.SetWithExpiry("k", "new", tt.amount, tt.unit)
			if !errors.Is(err, ErrInvalidTTL) {
				t.Fatalf("err = %v, want ErrInvalidTTL", err)
			}
			if got, _ := store.Get("k"); got != "old" {
				t.Fatalf("failed SetWithExpiry modified value: %q", got)
			}
		})
	}
}

func TestTTLUnit_ToMillis(t *testing.T) {
	tests := []struct {
		unit   TTLUnit
		amount int64
		want   int64
	}{
		{Seconds, 1, 1000},
		{Seconds, 3600, 3_600_000},
		{Milliseconds, 1, 1},
		{Milliseconds, 1500, 1500},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.unit, tt.amount), func(t *testing.T) {
			got, err := tt.unit.ToMillis(tt.amount)
			if err != nil {
				t.Fatalf("ToMillis: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToMillis = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	clock := newFakeClock()
	evicted := 0
	store := New(WithClock(clock), WithEvictionHook(func(n int) { evicted += n }))

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("short-%d", i)
		if err := store.SetWithExpiry(key, "v", 5, Milliseconds); err != nil {
			t.Fatalf("SetWithExpiry: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		store.Set(fmt.Sprintf("perm-%d", i), "v")
	}
	if err := store.SetWithExpiry("long", "v", 1, Seconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}

	clock.Advance(10 * time.Millisecond)

	if n := store.DeleteExpired(); n != 10 {
		t.Fatalf("DeleteExpired = %d, want 10", n)
	}
	if evicted != 10 {
		t.Fatalf("eviction hook saw %d, want 10", evicted)
	}
	if store.Len() != 6 {
		t.Fatalf("Len = %d, want 6", store.Len())
	}
}

func TestStore_RunJanitor(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock))

	if err := store.SetWithExpiry("k", "v", 1, Milliseconds); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}
	clock.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not sweep expired key")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunJanitor did not return after cancel")
	}
}

func TestStore_ShardCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultShardCount},
		{1, 1},
		{3, 4},
		{16, 16},
		{100, 128},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			store := New(WithShardCount(tt.in))
			if len(store.shards) != tt.want {
				t.Fatalf("shards = %d, want %d", len(store.shards), tt.want)
			}
			store.Set("a", "1")
			if got, ok := store.Get("a"); !ok || got != "1" {
				t.Fatalf("Get = %q, %v", got, ok)
			}
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	store := New()
	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				store.Set(key, key)
				if got, ok := store.Get(key); !ok || got != key {
					t.Errorf("Get(%q) = %q, %v", key, got, ok)
					return
				}
				if i%10 == 0 {
					_ = store.SetWithExpiry(key+"-ttl", "x", 1, Milliseconds)
				}
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			store.DeleteExpired()
		}
	}()

	wg.Wait()

	for w := 0; w < workers; w++ {
		key := fmt.Sprintf("w%d-k%d", w, perWorker-1)
		if got, ok := store.Get(key); !ok || got != key {
			t.Fatalf("final Get(%q) = %q, %v", key, got, ok)
		}
	}
}
