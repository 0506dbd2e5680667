package commands

import (
	"context"
	"testing"

	"mergevault/pkg/app"
	"mergevault/pkg/content"
	"mergevault/pkg/core"
	"mergevault/pkg/meta"
	"mergevault/pkg/storage/memory"
	"mergevault/pkg/vault"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupIntegrationEnv 搭建内存对象存储 + 内存 SQLite 的集成环境，
// 并注入全局 MV (子命令都从它取依赖)
func setupIntegrationEnv(t *testing.T) *app.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&meta.Ref{}, &meta.CommitModel{}))
	repo := meta.NewRepository(metaDB)

	store := memory.NewAdapter()
	application := &app.App{
		Store: store,
		Meta:  repo,
		Vault: vault.New(store, repo, content.NewDefaultRegistry()),
	}

	MV = application

	// 直接调用 RunE 时不会经过 Execute，需要手动注入 context
	var setCtx func(*cobra.Command)
	setCtx = func(c *cobra.Command) {
		c.SetContext(context.Background())
		for _, sub := range c.Commands() {
			setCtx(sub)
		}
	}
	setCtx(rootCmd)

	return application
}

func TestIntegration_WriteReadFlow(t *testing.T) {
	app := setupIntegrationEnv(t)
	ctx := context.Background()

	_, err := app.Vault.Init(ctx, "main", core.Info{Author: "tester", Message: "init"})
	require.NoError(t, err)

	// mvt write main metrics/hits 10 --type counter
	writeType = "counter"
	writeMsg = "set hits"
	err = writeCmd.RunE(writeCmd, []string{"main", "metrics/hits", "10"})
	require.NoError(t, err)

	// 值通过 Vault 可读回
	val, typeName, err := app.Vault.Read(ctx, "main", "metrics/hits")
	require.NoError(t, err)
	assert.Equal(t, "counter", typeName)
	assert.Equal(t, int64(10), val.(content.Counter).Value)

	// mvt read main metrics/hits 不报错
	require.NoError(t, readCmd.RunE(readCmd, []string{"main", "metrics/hits"}))

	// 非整数的 counter 参数被拒绝
	err = writeCmd.RunE(writeCmd, []string{"main", "metrics/hits", "not-a-number"})
	assert.Error(t, err)
}

func TestIntegration_BranchMergeFlow(t *testing.T) {
	app := setupIntegrationEnv(t)
	ctx := context.Background()

	_, err := app.Vault.Init(ctx, "main", core.Info{Author: "tester", Message: "init"})
	require.NoError(t, err)

	writeType = "counter"
	writeMsg = ""
	require.NoError(t, writeCmd.RunE(writeCmd, []string{"main", "hits", "10"}))

	// mvt branch clone main feature
	require.NoError(t, branchCloneCmd.RunE(branchCloneCmd, []string{"main", "feature"}))

	require.NoError(t, writeCmd.RunE(writeCmd, []string{"feature", "hits", "15"}))

	// mvt merge main feature => fast-forward
	mergeMsg = ""
	require.NoError(t, mergeCmd.RunE(mergeCmd, []string{"main", "feature"}))

	val, _, err := app.Vault.Read(ctx, "main", "hits")
	require.NoError(t, err)
	assert.Equal(t, int64(15), val.(content.Counter).Value)

	// mvt branch delete feature
	require.NoError(t, branchDeleteCmd.RunE(branchDeleteCmd, []string{"feature"}))
	heads, err := app.Vault.Refs().List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, heads, "feature")
}

func TestIntegration_MergeConflictReported(t *testing.T) {
	app := setupIntegrationEnv(t)
	ctx := context.Background()

	_, err := app.Vault.Init(ctx, "main", core.Info{Author: "tester", Message: "init"})
	require.NoError(t, err)

	writeType = "bytes"
	writeMsg = ""
	require.NoError(t, writeCmd.RunE(writeCmd, []string{"main", "doc", "base"}))
	require.NoError(t, app.Vault.Clone(ctx, "main", "other"))
	require.NoError(t, writeCmd.RunE(writeCmd, []string{"main", "doc", "ours"}))
	require.NoError(t, writeCmd.RunE(writeCmd, []string{"other", "doc", "theirs"}))

	// 冲突以 error 形式上抛 (命令同时负责打印明细)
	err = mergeCmd.RunE(mergeCmd, []string{"main", "other"})
	var ce *vault.ConflictError
	assert.ErrorAs(t, err, &ce)
}
