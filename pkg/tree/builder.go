package tree

import (
	"context"
	"fmt"
	"sort"

	"mergevault/pkg/core"
	"mergevault/pkg/types"
)

// Builder 把一张平铺的 path -> content Hash 映射一次性构建成树
// (批量写入场景比逐条 Set 少写很多中间节点)
type Builder struct {
	store *Store
}

func NewBuilder(store *Store) *Builder {
	return &Builder{store: store}
}

// Build 执行构建过程，返回根树的 Hash
func (b *Builder) Build(ctx context.Context, entries map[string]types.Hash) (types.Hash, error) {
	// 1. 构建内存中的中间树结构
	root := newDirNode()

	for path, content := range entries {
		parsed := types.ParsePath(path)
		if parsed.IsRoot() {
			return "", fmt.Errorf("empty path in batch")
		}
		root.add(parsed, content)
	}

	// 2. 自底向上计算 Hash 并持久化
	return b.writeNode(ctx, root)
}

// -----------------------------------------------------------------------------
// 内部辅助结构：内存树节点
// -----------------------------------------------------------------------------

type node struct {
	isDir    bool
	children map[string]*node // 仅目录有效
	content  types.Hash       // 仅 leaf 有效
}

func newDirNode() *node {
	return &node{
		isDir:    true,
		children: make(map[string]*node),
	}
}

// add 将一条 path 插入到内存树中
func (n *node) add(path types.Path, content types.Hash) {
	current := n
	for _, step := range path[:len(path)-1] {
		child, exists := current.children[step]
		if !exists || !child.isDir {
			child = newDirNode()
			current.children[step] = child
		}
		current = child
	}
	current.children[path[len(path)-1]] = &node{content: content}
}

// writeNode 递归地把内存节点转换为 core.Tree 并写入存储
func (b *Builder) writeNode(ctx context.Context, n *node) (types.Hash, error) {
	var entries []core.TreeEntry

	// 为了保证 Merkle Hash 的确定性，必须按名字排序处理
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := n.children[name]

		if !child.isDir {
			entries = append(entries, core.TreeEntry{
				Name: name,
				Type: core.EntryLeaf,
				Cid:  core.NewLink(child.content),
			})
			continue
		}

		childHash, err := b.writeNode(ctx, child)
		if err != nil {
			return "", err
		}
		entries = append(entries, core.TreeEntry{
			Name: name,
			Type: core.EntryDir,
			Cid:  core.NewLink(childHash),
		})
	}

	t, err := core.NewTree(entries)
	if err != nil {
		return "", err
	}
	if err := b.store.store.Put(ctx, t); err != nil {
		return "", err
	}
	return t.ID(), nil
}
