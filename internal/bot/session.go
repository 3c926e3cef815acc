package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type FlowKind string

const (
	FlowOrder    FlowKind = "order"
	FlowSchedule FlowKind = "schedule"
	FlowMessage  FlowKind = "message"
)

// Session is the transient per-user conversation state: which flow the user
// is in, which field is being collected, and the fields gathered so far.
// It lives only until the flow completes, is cancelled, or the TTL expires.
type Session struct {
	Flow      FlowKind          `json:"flow"`
	Step      int               `json:"step"`
	Fields    map[string]string `json:"fields"`
	StartedAt time.Time         `json:"startedAt"`
}

func newSession(kind FlowKind) *Session {
	return &Session{
		Flow:      kind,
		Step:      0,
		Fields:    make(map[string]string),
		StartedAt: time.Now().UTC(),
	}
}

// SessionStore keeps conversation sessions keyed by chat id. Get returns
// (nil, nil) when the user has no session in progress. Every Put refreshes
// the TTL so an active conversation never expires mid-flow.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Put(ctx context.Context, chatID int64, session *Session) error
	Delete(ctx context.Context, chatID int64) error
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore is the default single-process session store: a mutex-guarded
// map with a background sweep that evicts abandoned conversations.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[int64]*memoryEntry
	ttl     time.Duration
	done    chan struct{}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[int64]*memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[chatID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.session, nil
}

func (s *MemoryStore) Put(_ context.Context, chatID int64, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[chatID] = &memoryEntry{
		session:   session,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, chatID)
	return nil
}

// Close stops the eviction sweep.
func (s *MemoryStore) Close() {
	close(s.done)
}

func (s *MemoryStore) sweep() {
	interval := s.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for chatID, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, chatID)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared between bot replicas. TTL handling is delegated to Redis itself.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, chatID int64, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(chatID), raw, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	return s.rdb.Del(ctx, sessionKey(chatID)).Err()
}
