package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryStore - 프로세스 수명 동안 유지되는 무제한 맵
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore) Insert(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RedisStore - 서버 인스턴스 간 공유되는 캐시 계층 (TTL 없음)
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// Key hashes the fragment text so arbitrary prompts make safe Redis keys.
func (s *RedisStore) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return s.prefix + hex.EncodeToString(sum[:])
}

func (s *RedisStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET failed: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Insert(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

// TieredStore reads memory first, then the shared tier, and writes both.
type TieredStore struct {
	near *MemoryStore
	far  Store
}

func NewTieredStore(near *MemoryStore, far Store) *TieredStore {
	return &TieredStore{near: near, far: far}
}

func (s *TieredStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	if v, ok, _ := s.near.Lookup(ctx, key); ok {
		return v, true, nil
	}
	v, ok, err := s.far.Lookup(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	s.near.Insert(ctx, key, v)
	return v, true, nil
}

func (s *TieredStore) Insert(ctx context.Context, key, value string) error {
	s.near.Insert(ctx, key, value)
	return s.far.Insert(ctx, key, value)
}
