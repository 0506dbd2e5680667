package refs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"mergevault/pkg/meta"
	"mergevault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

func setupManager(t *testing.T) *Manager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&meta.Ref{}, &meta.CommitModel{}))

	return NewManager(meta.NewRepository(meta.NewWithConn(db)))
}

func TestManager_HeadLifecycle(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	// 不存在的分支
	_, _, err := m.Head(ctx, "main")
	assert.ErrorIs(t, err, ErrNoBranch)

	// 创建 (expectedVersion = 0)
	require.NoError(t, m.SetHead(ctx, "main", mockHash("c1"), 0))

	head, version, err := m.Head(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, mockHash("c1"), head)
	assert.Equal(t, int64(1), version)

	// 带正确版本号推进
	require.NoError(t, m.SetHead(ctx, "main", mockHash("c2"), version))

	head, version, err = m.Head(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, mockHash("c2"), head)
	assert.Equal(t, int64(2), version)
}

func TestManager_StaleHead(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	require.NoError(t, m.SetHead(ctx, "main", mockHash("c1"), 0))
	_, stale, err := m.Head(ctx, "main")
	require.NoError(t, err)

	// 另一个写者抢先推进
	require.NoError(t, m.SetHead(ctx, "main", mockHash("c2"), stale))

	// 拿旧版本号写入必须拿到 ErrStaleHead，且 head 不被破坏
	err = m.SetHead(ctx, "main", mockHash("c3"), stale)
	assert.ErrorIs(t, err, ErrStaleHead)

	head, _, err := m.Head(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, mockHash("c2"), head)
}

func TestManager_Clone(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	require.NoError(t, m.SetHead(ctx, "main", mockHash("c1"), 0))
	require.NoError(t, m.Clone(ctx, "main", "feature"))

	// clone 出的分支指向同一个 head
	head, _, err := m.Head(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, mockHash("c1"), head)

	// 分支独立：feature 推进不影响 main
	_, fv, err := m.Head(ctx, "feature")
	require.NoError(t, err)
	require.NoError(t, m.SetHead(ctx, "feature", mockHash("c2"), fv))

	mainHead, _, err := m.Head(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, mockHash("c1"), mainHead)

	// 目标已存在时报错
	assert.ErrorIs(t, m.Clone(ctx, "main", "feature"), ErrBranchExists)
	// 源不存在时报错
	assert.ErrorIs(t, m.Clone(ctx, "ghost", "copy"), ErrNoBranch)
}

func TestManager_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	m := setupManager(t)

	require.NoError(t, m.SetHead(ctx, "main", mockHash("c1"), 0))
	require.NoError(t, m.SetHead(ctx, "dev", mockHash("c2"), 0))

	heads, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.Hash{
		"main": mockHash("c1"),
		"dev":  mockHash("c2"),
	}, heads)

	require.NoError(t, m.Delete(ctx, "dev"))
	assert.ErrorIs(t, m.Delete(ctx, "dev"), ErrNoBranch)

	heads, err = m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, heads, 1)
}
