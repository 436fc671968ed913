package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"quel-shorts-studio/modules/common/config"
)

// ErrDisabled - REDIS_HOST 미설정
var ErrDisabled = errors.New("redis not configured")

const pingTimeout = 10 * time.Second

// Options builds client options for the shared asset cache. Asset blobs
// are large, so reads and writes get long timeouts.
func Options(cfg *config.Config) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if cfg.RedisUseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// Connect - Redis 연결 생성 및 ping 확인
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		return nil, ErrDisabled
	}

	opts := Options(cfg)
	log.Printf("🔌 [Redis] Connecting to %s (TLS: %v)", opts.Addr, opts.TLSConfig != nil)
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}

	log.Printf("✅ [Redis] Connected")
	return rdb, nil
}
