package cache

import (
	"context"
	"log"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"quel-shorts-studio/modules/common/fallback"
)

// Store - 캐시 저장소 (조회/저장만 지원, 삭제 없음)
type Store interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Insert(ctx context.Context, key, value string) error
}

// FetchFunc produces the asset for a key on a cache miss.
type FetchFunc func(ctx context.Context) (string, error)

// Stats - 캐시 통계
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Fetches int64 `json:"fetches"`
}

// AssetCache maps fragment text to a previously generated asset. Entries
// are never evicted or invalidated; asset identity is a function of the key
// text only. Concurrent misses for the same key share one fetch.
type AssetCache struct {
	store   Store
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

// New - 캐시 생성 (store가 nil이면 메모리 저장소)
func New(store Store) *AssetCache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &AssetCache{store: store}
}

// Lookup - 캐시 조회
func (c *AssetCache) Lookup(ctx context.Context, key string) (string, bool) {
	value, ok, err := c.store.Lookup(ctx, key)
	if err != nil {
		log.Printf("⚠️  [Cache] Lookup failed, treating as miss: %v", err)
		return "", false
	}
	return value, ok
}

// Insert - 캐시 저장
func (c *AssetCache) Insert(ctx context.Context, key, value string) error {
	return c.store.Insert(ctx, key, value)
}

// GetOrCreate returns the cached asset for key, or runs fetch once and
// stores its result. Failed fetches are not cached.
func (c *AssetCache) GetOrCreate(ctx context.Context, key string, fetch FetchFunc) (string, error) {
	if value, ok := c.Lookup(ctx, key); ok {
		c.hits.Add(1)
		log.Printf("♻️  [Cache] Hit: %s", preview(key))
		return value, nil
	}
	c.misses.Add(1)

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// another caller may have populated the key between our lookup and Do
		if value, ok := c.Lookup(ctx, key); ok {
			return value, nil
		}

		c.fetches.Add(1)
		value, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		if err := c.Insert(ctx, key, value); err != nil {
			log.Printf("⚠️  [Cache] Insert failed for %s: %v", preview(key), err)
		}
		return value, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		log.Printf("🤝 [Cache] Shared in-flight fetch: %s", preview(key))
	}
	return v.(string), nil
}

// Stats - 통계 스냅샷
func (c *AssetCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
	}
}

func preview(s string) string {
	return fallback.Truncate(s, 40)
}
