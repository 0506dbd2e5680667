package tree

import (
	"context"
	"errors"
	"testing"

	"mergevault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect 把 diff 输出收成 "path:type" 列表，方便断言顺序
func collect(t *testing.T, s *Store, a, b types.Hash) []string {
	t.Helper()
	var out []string
	err := s.Diff(context.Background(), a, b, func(path types.Path, change Change) error {
		out = append(out, path.String()+":"+string(change.Type))
		return nil
	})
	require.NoError(t, err)
	return out
}

func buildTree(t *testing.T, s *Store, entries map[string]types.Hash) types.Hash {
	t.Helper()
	root, err := NewBuilder(s).Build(context.Background(), entries)
	require.NoError(t, err)
	return root
}

func TestDiff_Basic(t *testing.T) {
	s := setupStore(t)

	a := buildTree(t, s, map[string]types.Hash{
		"unchanged": mockHash("same"),
		"modified":  mockHash("old"),
		"removed":   mockHash("gone"),
	})
	b := buildTree(t, s, map[string]types.Hash{
		"unchanged": mockHash("same"),
		"modified":  mockHash("new"),
		"added":     mockHash("fresh"),
	})

	// 输出按路径排序，unchanged 不出现
	assert.Equal(t, []string{
		"added:added",
		"modified:modified",
		"removed:removed",
	}, collect(t, s, a, b))
}

func TestDiff_SameRootIsEmpty(t *testing.T) {
	s := setupStore(t)
	root := buildTree(t, s, map[string]types.Hash{"k": mockHash("v")})

	assert.Empty(t, collect(t, s, root, root))
}

func TestDiff_SkipsEqualSubtrees(t *testing.T) {
	s := setupStore(t)

	// 一个很大的共享子树 + 一处小改动
	entries := map[string]types.Hash{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		entries["shared/"+name] = mockHash(name)
	}
	entries["hot/key"] = mockHash("v1")

	a := buildTree(t, s, entries)
	entries["hot/key"] = mockHash("v2")
	b := buildTree(t, s, entries)

	// 只有改动的 leaf 出现，shared 子树被整棵跳过
	assert.Equal(t, []string{"hot/key:modified"}, collect(t, s, a, b))
}

func TestDiff_LeafDirSwap(t *testing.T) {
	s := setupStore(t)

	a := buildTree(t, s, map[string]types.Hash{"node": mockHash("leaf")})
	b := buildTree(t, s, map[string]types.Hash{
		"node/x": mockHash("x"),
		"node/y": mockHash("y"),
	})

	// 形态互换：老 leaf 整体删除，新子树下每个 leaf 整体新增
	assert.ElementsMatch(t, []string{
		"node:removed",
		"node/x:added",
		"node/y:added",
	}, collect(t, s, a, b))
}

func TestDiff_VisitErrorAborts(t *testing.T) {
	s := setupStore(t)

	a := buildTree(t, s, map[string]types.Hash{"k1": mockHash("1"), "k2": mockHash("2")})
	b := buildTree(t, s, map[string]types.Hash{"k1": mockHash("x"), "k2": mockHash("y")})

	sentinel := errors.New("stop here")
	count := 0
	err := s.Diff(context.Background(), a, b, func(types.Path, Change) error {
		count++
		return sentinel
	})
	// 回调的 error 原样上抛，且遍历立即停止
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, count)
}

func TestDiff_Deterministic(t *testing.T) {
	s := setupStore(t)

	a := buildTree(t, s, map[string]types.Hash{"x/1": mockHash("1"), "y": mockHash("2")})
	b := buildTree(t, s, map[string]types.Hash{"x/1": mockHash("3"), "z": mockHash("4")})

	// 重复 diff 输出序列完全一致
	assert.Equal(t, collect(t, s, a, b), collect(t, s, a, b))
}
