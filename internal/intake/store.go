package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrContention is returned when a Redis-backed update keeps losing its
// optimistic transaction.
var ErrContention = errors.New("intake state is being updated concurrently")

// State is a tenant's pending, not yet filed description.
type State struct {
	Description string   `json:"description"`
	Media       []string `json:"media,omitempty"`
	Rounds      int      `json:"rounds"`
}

// UpdateFunc mutates st in place. Returning keep=false clears the entry; a
// non-nil error aborts the update and leaves the stored state untouched.
type UpdateFunc func(st *State) (keep bool, err error)

// Store holds intake state keyed by tenant. Updates to one key are serialised.
type Store interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

type memEntry struct {
	lock    sync.Mutex
	state   *State
	expires time.Time
	refs    int
}

// MemoryStore is an in-process Store with per-key locking and TTL eviction.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	ttl     time.Duration
	now     func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryStore starts a janitor goroutine; call Close to stop it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: map[string]*memEntry{},
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	s.wg.Add(1)
	go s.janitor(interval)
	return s
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &memEntry{}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.lock.Lock()
	var st State
	if e.state != nil && s.now().Before(e.expires) {
		st = *e.state
		st.Media = append([]string(nil), e.state.Media...)
	}
	keep, err := fn(&st)
	if err == nil {
		if keep {
			e.state = &st
			e.expires = s.now().Add(s.ttl)
		} else {
			e.state = nil
		}
	}
	e.lock.Unlock()

	s.mu.Lock()
	e.refs--
	if e.refs == 0 && e.state == nil {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return err
}

// Len reports how many keys currently hold state.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.entries {
		// refs == 0 means no Update holds or waits on e.lock.
		if e.refs == 0 && (e.state == nil || !now.Before(e.expires)) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

const maxTxAttempts = 5

// RedisStore keeps intake state in Redis under "intake:<key>" with a TTL.
// Read-modify-write runs inside WATCH/MULTI, so fn may run more than once.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return "intake:" + key
}

func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	k := redisKey(key)
	txf := func(tx *redis.Tx) error {
		var st State
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("read intake state: %w", err)
		default:
			if err := json.Unmarshal(raw, &st); err != nil {
				return fmt.Errorf("decode intake state: %w", err)
			}
		}

		keep, err := fn(&st)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !keep {
				pipe.Del(ctx, k)
				return nil
			}
			data, err := json.Marshal(st)
			if err != nil {
				return err
			}
			pipe.Set(ctx, k, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxAttempts; i++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrContention
}
