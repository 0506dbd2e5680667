package e2e

import (
	"context"
	"io/fs"
	"math/rand"
	"path/filepath"
	"testing"

	"mergevault/pkg/blob"
	"mergevault/pkg/content"
	"mergevault/pkg/core"
	"mergevault/pkg/meta"
	"mergevault/pkg/storage/disk"
	"mergevault/pkg/types"
	"mergevault/pkg/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEnv(t *testing.T) (*vault.Vault, string) {
	t.Helper()
	tmpDir := t.TempDir()
	objectsDir := filepath.Join(tmpDir, "objects")

	diskStore, err := disk.NewAdapter(objectsDir)
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(filepath.Join(tmpDir, "meta.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&meta.Ref{}, &meta.CommitModel{}))

	repo := meta.NewRepository(meta.NewWithConn(db))
	return vault.New(diskStore, repo, content.NewDefaultRegistry()), objectsDir
}

func info(author, msg string) core.Info {
	return core.Info{Author: author, Message: msg}
}

// countObjects 统计对象目录里实际落盘的文件数
func countObjects(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

// TestWorkflow_BranchAndMerge 走一遍完整的使用流程：
// 初始化 -> 写入 -> 分支 -> 两侧并发修改 -> fast-forward -> 三方合并 -> 历史查询
func TestWorkflow_BranchAndMerge(t *testing.T) {
	ctx := context.Background()
	v, _ := setupEnv(t)

	// 1. 初始化仓库
	_, err := v.Init(ctx, "main", info("admin", "init"))
	require.NoError(t, err)

	// 2. 基线数据
	_, err = v.Write(ctx, "main", "metrics/requests", "counter", content.Counter{Value: 10}, info("admin", "baseline"))
	require.NoError(t, err)
	_, err = v.Write(ctx, "main", "config/banner", "bytes", []byte("welcome"), info("admin", "banner"))
	require.NoError(t, err)

	// 3. 两个独立分支
	require.NoError(t, v.Clone(ctx, "main", "alice"))
	require.NoError(t, v.Clone(ctx, "main", "bob"))

	// 4. alice +5，fast-forward 回 main
	_, err = v.Write(ctx, "alice", "metrics/requests", "counter", content.Counter{Value: 15}, info("alice", "+5"))
	require.NoError(t, err)
	_, err = v.MergeInto(ctx, "main", "alice", info("admin", "merge alice"))
	require.NoError(t, err)

	val, _, err := v.Read(ctx, "main", "metrics/requests")
	require.NoError(t, err)
	assert.Equal(t, int64(15), val.(content.Counter).Value)

	// 5. bob -2，相对基线 10 做三方合并 => 13
	_, err = v.Write(ctx, "bob", "metrics/requests", "counter", content.Counter{Value: 8}, info("bob", "-2"))
	require.NoError(t, err)
	mergeHead, err := v.MergeInto(ctx, "main", "bob", info("admin", "merge bob"))
	require.NoError(t, err)

	val, _, err = v.Read(ctx, "main", "metrics/requests")
	require.NoError(t, err)
	assert.Equal(t, int64(13), val.(content.Counter).Value)

	// 没被碰过的 key 原样保留
	val, _, err = v.Read(ctx, "main", "config/banner")
	require.NoError(t, err)
	assert.Equal(t, []byte("welcome"), val)

	// 6. merge 提交有双亲，历史可沿第一父链回溯
	mergeCommit, err := v.Graph().Load(ctx, mergeHead)
	require.NoError(t, err)
	assert.Len(t, mergeCommit.ParentHashes(), 2)

	log, err := v.Log(ctx, "main", 0)
	require.NoError(t, err)
	assert.Equal(t, "merge bob", log[0].Message)

	// 7. SQL 索引可以按作者查询
	byBob, err := v.Meta().FindCommitsByAuthor(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Len(t, byBob, 1)
}

// TestWorkflow_LargeValueDedup 验证大值切分和跨提交去重
func TestWorkflow_LargeValueDedup(t *testing.T) {
	ctx := context.Background()
	v, objectsDir := setupEnv(t)

	_, err := v.Init(ctx, "main", info("admin", "init"))
	require.NoError(t, err)

	// 1MB 随机数据，远超内联阈值
	big := make([]byte, blob.InlineThreshold*16)
	r := rand.New(rand.NewSource(99))
	_, err = r.Read(big)
	require.NoError(t, err)

	_, err = v.Write(ctx, "main", "datasets/train", "bytes", big, info("admin", "upload"))
	require.NoError(t, err)

	val, _, err := v.Read(ctx, "main", "datasets/train")
	require.NoError(t, err)
	assert.Equal(t, big, val)

	// 同样的内容写到另一条路径：blob/span/chunk 全部命中已有对象，
	// 新落盘的只有树节点和提交
	before := countObjects(t, objectsDir)
	_, err = v.Write(ctx, "main", "datasets/copy", "bytes", big, info("admin", "copy"))
	require.NoError(t, err)
	delta := countObjects(t, objectsDir) - before

	assert.Less(t, delta, 10, "重复内容不应重写数据块")
}

// TestWorkflow_ConflictSurfacing 验证冲突完整上报且不落任何状态
func TestWorkflow_ConflictSurfacing(t *testing.T) {
	ctx := context.Background()
	v, _ := setupEnv(t)

	_, err := v.Init(ctx, "main", info("admin", "init"))
	require.NoError(t, err)
	_, err = v.Write(ctx, "main", "doc", "bytes", []byte("base"), info("admin", "base"))
	require.NoError(t, err)
	require.NoError(t, v.Clone(ctx, "main", "other"))

	_, err = v.Write(ctx, "main", "doc", "bytes", []byte("ours"), info("admin", "ours"))
	require.NoError(t, err)
	_, err = v.Write(ctx, "other", "doc", "bytes", []byte("theirs"), info("admin", "theirs"))
	require.NoError(t, err)

	_, err = v.MergeInto(ctx, "main", "other", info("admin", "conflict"))
	var ce *vault.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Conflicts, 1)
	assert.Equal(t, types.Path{"doc"}, ce.Conflicts[0].Path)

	// 冲突后 main 依然是自己的内容
	val, _, err := v.Read(ctx, "main", "doc")
	require.NoError(t, err)
	assert.Equal(t, []byte("ours"), val)
}
