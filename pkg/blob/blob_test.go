package blob

import (
	"context"
	"math/rand"
	"testing"

	"mergevault/pkg/storage"
	"mergevault/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomData(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	r := rand.New(rand.NewSource(7))
	_, err := r.Read(data)
	require.NoError(t, err)
	return data
}

func TestService_InlineRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewAdapter())

	hash, err := svc.Write(ctx, "bytes", []byte("small value"))
	require.NoError(t, err)

	b, data, err := svc.Load(ctx, hash)
	require.NoError(t, err)
	assert.True(t, b.Inline())
	assert.Equal(t, "bytes", b.ContentType)
	assert.Equal(t, []byte("small value"), data)
}

func TestService_ChunkedRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewAdapter())

	// 超过内联阈值，强制走 Chunk + Span 路径
	big := randomData(t, InlineThreshold*4)

	hash, err := svc.Write(ctx, "bytes", big)
	require.NoError(t, err)

	b, data, err := svc.Load(ctx, hash)
	require.NoError(t, err)
	assert.False(t, b.Inline())
	assert.Equal(t, int64(len(big)), b.Size)
	assert.Equal(t, big, data)
}

func TestService_ChunkDedup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAdapter()
	svc := NewService(store)

	big := randomData(t, InlineThreshold*4)
	_, err := svc.Write(ctx, "bytes", big)
	require.NoError(t, err)
	countFirst := store.Len()

	// 同样的大值写两次，内容寻址让对象数不变
	_, err = svc.Write(ctx, "bytes", big)
	require.NoError(t, err)
	assert.Equal(t, countFirst, store.Len())
}

func TestService_LoadMissing(t *testing.T) {
	svc := NewService(memory.NewAdapter())

	_, _, err := svc.Load(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_WriteIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewAdapter())

	h1, err := svc.Write(ctx, "counter", []byte{0x01})
	require.NoError(t, err)
	h2, err := svc.Write(ctx, "counter", []byte{0x01})
	require.NoError(t, err)
	h3, err := svc.Write(ctx, "bytes", []byte{0x01})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	// ContentType 记录在 Blob 里，参与寻址
	assert.NotEqual(t, h1, h3)
}
