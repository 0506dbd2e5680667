package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/types"

	"github.com/redis/go-redis/v9"
)

// 超过这个大小的对象不进缓存 (Redis 不适合当大值存储)
const maxCacheableSize = 1 << 20 // 1MB

// CachedStore 是一个装饰器，它为底层的 storage.Store 添加 Redis 缓存层
// merge 的 LCA 搜索和 diff 遍历会反复读同一批 tree/commit 对象，
// 这层缓存就是为这种访问模式准备的。
type CachedStore struct {
	backend storage.Store // 被装饰的底层存储 (如 S3)
	client  *redis.Client
	ttl     time.Duration
}

type Config struct {
	RedisURL string        // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // 过期时间
}

func NewCachedStore(backend storage.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Fail-fast 连接检查
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     cfg.TTL,
	}, nil
}

// cacheKey 生成 Redis Key，添加前缀防止冲突
func (s *CachedStore) cacheKey(hash types.Hash) string {
	return "mv:obj:" + string(hash)
}

// Has 优先查 Redis，实现毫秒级去重
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := s.cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// 缓存故障降级 (Cache Failure Fallback)
		// Redis 挂了不应该拖垮整个程序，退化为无缓存模式直查底层。
		fmt.Printf("WARN: Redis error: %v\n", err)
	} else if val > 0 {
		return true, nil
	}

	// 缓存未命中 (Cache Miss)，查底层存储
	return s.backend.Has(ctx, hash)
}

func (s *CachedStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	key := s.cacheKey(hash)

	// 1. 查 Redis
	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	if !errors.Is(err, redis.Nil) {
		fmt.Printf("WARN: Redis error: %v\n", err)
	}

	// 2. 回源
	reader, err := s.backend.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	// 3. 异步回填没必要，这里对象都不大，同步写即可
	// 写失败只影响性能，不影响正确性
	if len(raw) <= maxCacheableSize {
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			fmt.Printf("WARN: failed to backfill redis cache: %v\n", err)
		}
	}

	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	// 先保证持久层写成功，再写缓存
	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	data := obj.Bytes()
	if len(data) <= maxCacheableSize {
		key := s.cacheKey(obj.ID())
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			fmt.Printf("WARN: failed to write redis cache: %v\n", err)
		}
	}
	return nil
}

// Close 释放 Redis 连接
func (s *CachedStore) Close() error {
	return s.client.Close()
}
