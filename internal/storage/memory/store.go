package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of lock stripes.
const DefaultShardCount = 16

// entry is one stored value. expiresAt is unix milliseconds, 0 means no expiry.
type entry struct {
	value     string
	expiresAt int64
}

func (e entry) expired(nowMillis int64) bool {
	return e.expiresAt != 0 && nowMillis >= e.expiresAt
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// Store is a concurrent-safe keyspace with optional per-key expiry.
type Store struct {
	shards []*shard
	mask   uint32
	clock  Clock

	// onEvict is called with the number of entries removed because they
	// expired. It runs outside any shard lock.
	onEvict func(n int)
}

// Option configures the Store.
type Option func(*Store)

// WithShardCount sets the number of shards. It is rounded up to a power of
// two; values below 1 keep the default.
func WithShardCount(n int) Option {
	return func(s *Store) {
		if n < 1 {
			return
		}
		count := 1
		for count < n {
			count <<= 1
		}
		s.shards = make([]*shard, count)
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithEvictionHook registers fn to observe expired-entry evictions.
func WithEvictionHook(fn func(n int)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		shards: make([]*shard, DefaultShardCount),
		clock:  systemClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]entry)}
	}
	s.mask = uint32(len(s.shards) - 1)

	return s
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[murmur3.Sum32([]byte(key))&s.mask]
}

func (s *Store) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

func (s *Store) evicted(n int) {
	if n > 0 && s.onEvict != nil {
		s.onEvict(n)
	}
}

// Get returns the value stored at key. An entry whose expiry has passed is
// reported as absent and removed.
func (s *Store) Get(key string) (string, bool) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !e.expired(now) {
		return e.value, true
	}

	// Re-check under the write lock: a concurrent Set may have replaced it.
	sh.mu.Lock()
	cur, ok := sh.items[key]
	if ok && !cur.expired(now) {
		sh.mu.Unlock()
		return cur.value, true
	}
	if ok {
		delete(sh.items, key)
	}
	sh.mu.Unlock()

	if ok {
		s.evicted(1)
	}
	return "", false
}

// Set stores value at key with no expiry, discarding any previous expiry.
func (s *Store) Set(key, value string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = entry{value: value}
	sh.mu.Unlock()
}

// SetWithExpiry stores value at key to expire after amount units from now.
// It returns ErrInvalidTTL when amount is not positive or overflows.
func (s *Store) SetWithExpiry(key, value string, amount int64, unit TTLUnit) error {
	ttl, err := unit.ToMillis(amount)
	if err != nil {
		return err
	}
	at, err := deadline(s.clock.Now(), ttl)
	if err != nil {
		return err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = entry{value: value, expiresAt: at}
	sh.mu.Unlock()
	return nil
}

// TTL returns the remaining lifetime of key. ok is false when the key is
// absent; a zero duration with ok true means the key never expires.
func (s *Store) TTL(key string) (time.Duration, bool) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok || e.expired(now) {
		return 0, false
	}
	if e.expiresAt == 0 {
		return 0, true
	}
	return time.Duration(e.expiresAt-now) * time.Millisecond, true
}

// Len returns the number of stored entries, including expired entries that
// have not been evicted yet.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// DeleteExpired removes every expired entry and returns how many were removed.
// Shards are swept one at a time.
func (s *Store) DeleteExpired() int {
	now := s.nowMillis()
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if e.expired(now) {
				delete(sh.items, k)
				total++
			}
		}
		sh.mu.Unlock()
	}
	s.evicted(total)
	return total
}

// RunJanitor calls DeleteExpired every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeleteExpired()
		case <-ctx.Done():
			return
		}
	}
}
