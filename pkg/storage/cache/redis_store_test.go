package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 集成测试：需要真实 Redis，通过环境变量指定
// 例: MVT_TEST_REDIS_URL=redis://localhost:6379/0 go test ./pkg/storage/cache/
func setupCache(t *testing.T) (*CachedStore, *memory.Adapter) {
	t.Helper()

	url := os.Getenv("MVT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MVT_TEST_REDIS_URL not set, skipping redis integration test")
	}

	backend := memory.NewAdapter()
	cached, err := NewCachedStore(backend, Config{
		RedisURL: url,
		TTL:      time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cached.Close() })

	return cached, backend
}

func TestCachedStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := setupCache(t)

	chunk := core.NewChunk([]byte("cached content"))
	require.NoError(t, s.Put(ctx, chunk))

	ok, err := s.Has(ctx, chunk.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := storage.GetBytes(ctx, s, chunk.ID())
	require.NoError(t, err)
	assert.Equal(t, []byte("cached content"), data)
}

func TestCachedStore_ReadThroughBackfill(t *testing.T) {
	ctx := context.Background()
	s, backend := setupCache(t)

	// 绕过缓存直接写底层，模拟缓存冷启动
	chunk := core.NewChunk([]byte("backend only"))
	require.NoError(t, backend.Put(ctx, chunk))

	// 第一次读回源并回填
	data, err := storage.GetBytes(ctx, s, chunk.ID())
	require.NoError(t, err)
	assert.Equal(t, []byte("backend only"), data)

	// 回填后即使底层读不到也能命中缓存
	val, err := s.client.Get(ctx, s.cacheKey(chunk.ID())).Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("backend only"), val)
}

func TestCachedStore_MissPropagatesNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := setupCache(t)

	_, err := s.Get(ctx, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
