// Package tree 实现路径寻址的持久化 (persistent) 树。
// 节点全部以 Hash 互相引用，修改任何路径只会新建从根到改动点
// 的一条节点链，其余子树原样共享 —— 这是快照廉价和 diff 快的根源。
package tree

import (
	"context"
	"errors"
	"fmt"

	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/types"
)

// ErrIntegrity 表示对象图损坏 (树引用了存储里不存在的 Hash 等)
// 这类错误永远不可恢复，调用方应当直接中止操作。
var ErrIntegrity = errors.New("object graph integrity error")

type ChangeType string

const (
	Added    ChangeType = "added"
	Removed  ChangeType = "removed"
	Modified ChangeType = "modified"
)

// Change 是 diff 输出的一条差异
// A 是旧侧 (diff 第一个参数) 的内容 Hash，B 是新侧的
type Change struct {
	Type ChangeType
	A    types.Hash
	B    types.Hash
}

// VisitFunc 按排序后的 Path 顺序接收差异
// 返回非 nil error 会中止遍历并原样上抛 (调用方可借此提前取消)
type VisitFunc func(path types.Path, change Change) error

// Store 把 storage.Store 包装成树语义的操作集合
type Store struct {
	store storage.Store
}

func NewStore(store storage.Store) *Store {
	return &Store{store: store}
}

// EmptyRoot 返回空树的 Hash (空树也是一个真实对象，会被写入存储)
func (s *Store) EmptyRoot(ctx context.Context) (types.Hash, error) {
	empty, err := core.NewTree(nil)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, empty); err != nil {
		return "", err
	}
	return empty.ID(), nil
}

// load 读取一个树节点；零值 Hash 视为空树
func (s *Store) load(ctx context.Context, hash types.Hash) (*core.Tree, error) {
	if hash.IsZero() {
		return core.NewTree(nil)
	}
	data, err := storage.GetBytes(ctx, s.store, hash)
	if errors.Is(err, storage.ErrNotFound) {
		// 树引用了不存在的对象 => 图已损坏
		return nil, fmt.Errorf("%w: dangling tree node %s", ErrIntegrity, hash)
	}
	if err != nil {
		return nil, err
	}
	return core.DecodeTree(data)
}

// Get 返回 path 处的内容 Hash；不存在时 ok=false
func (s *Store) Get(ctx context.Context, root types.Hash, path types.Path) (types.Hash, bool, error) {
	if path.IsRoot() {
		return "", false, fmt.Errorf("cannot read content at tree root")
	}

	node, err := s.load(ctx, root)
	if err != nil {
		return "", false, err
	}

	// 沿着中间 step 下钻
	for _, step := range path[:len(path)-1] {
		entry, ok := node.Find(step)
		if !ok || entry.Type != core.EntryDir {
			return "", false, nil
		}
		node, err = s.load(ctx, entry.Cid.Hash)
		if err != nil {
			return "", false, err
		}
	}

	entry, ok := node.Find(path[len(path)-1])
	if !ok || entry.Type != core.EntryLeaf {
		return "", false, nil
	}
	return entry.Cid.Hash, true, nil
}

// Set 把 path 指向 content，返回新的根 Hash
// 只有根到改动点的节点链会产生新对象，其余子树按 Hash 原样共享。
func (s *Store) Set(ctx context.Context, root types.Hash, path types.Path, content types.Hash) (types.Hash, error) {
	if path.IsRoot() {
		return "", fmt.Errorf("cannot set content at tree root")
	}
	return s.setAt(ctx, root, path, content)
}

func (s *Store) setAt(ctx context.Context, nodeHash types.Hash, path types.Path, content types.Hash) (types.Hash, error) {
	node, err := s.load(ctx, nodeHash)
	if err != nil {
		return "", err
	}

	step := path[0]
	var newEntry core.TreeEntry

	if len(path) == 1 {
		newEntry = core.TreeEntry{Name: step, Type: core.EntryLeaf, Cid: core.NewLink(content)}
	} else {
		// 中间节点：找到 (或新建) 子树，递归下去
		var childHash types.Hash
		if entry, ok := node.Find(step); ok && entry.Type == core.EntryDir {
			childHash = entry.Cid.Hash
		}
		// 如果 step 处原来是 leaf，会被新子树直接覆盖

		newChildHash, err := s.setAt(ctx, childHash, path[1:], content)
		if err != nil {
			return "", err
		}
		newEntry = core.TreeEntry{Name: step, Type: core.EntryDir, Cid: core.NewLink(newChildHash)}
	}

	newNode, err := node.With(newEntry)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, newNode); err != nil {
		return "", err
	}
	return newNode.ID(), nil
}

// Remove 删除 path，返回新的根 Hash
// 删空的中间节点会被剪掉，保证语义相同的树无论经过什么编辑序列
// 都收敛到同一个 Hash。path 本来就不存在时原样返回根。
func (s *Store) Remove(ctx context.Context, root types.Hash, path types.Path) (types.Hash, error) {
	if path.IsRoot() {
		return "", fmt.Errorf("cannot remove tree root")
	}

	newRoot, _, err := s.removeAt(ctx, root, path)
	if err != nil {
		return "", err
	}
	return newRoot, nil
}

// removeAt 返回 (新节点 Hash, 是否删空, error)
func (s *Store) removeAt(ctx context.Context, nodeHash types.Hash, path types.Path) (types.Hash, bool, error) {
	node, err := s.load(ctx, nodeHash)
	if err != nil {
		return "", false, err
	}

	step := path[0]
	entry, ok := node.Find(step)
	if !ok {
		return nodeHash, node.IsEmpty(), nil // 目标不存在，no-op
	}

	var newNode *core.Tree
	if len(path) == 1 {
		if entry.Type != core.EntryLeaf {
			return nodeHash, node.IsEmpty(), nil // 只删 leaf，dir 不受影响
		}
		newNode, err = node.Without(step)
		if err != nil {
			return "", false, err
		}
	} else {
		if entry.Type != core.EntryDir {
			return nodeHash, node.IsEmpty(), nil
		}
		childHash, childEmpty, err := s.removeAt(ctx, entry.Cid.Hash, path[1:])
		if err != nil {
			return "", false, err
		}
		if childEmpty {
			// 剪掉空目录 (结构不变量：不允许悬空的空内部节点)
			newNode, err = node.Without(step)
		} else {
			newNode, err = node.With(core.TreeEntry{Name: step, Type: core.EntryDir, Cid: core.NewLink(childHash)})
		}
		if err != nil {
			return "", false, err
		}
	}

	if err := s.store.Put(ctx, newNode); err != nil {
		return "", false, err
	}
	return newNode.ID(), newNode.IsEmpty(), nil
}

// Walk 按排序顺序遍历树的所有 leaf
func (s *Store) Walk(ctx context.Context, root types.Hash, fn func(path types.Path, content types.Hash) error) error {
	return s.walk(ctx, root, nil, fn)
}

func (s *Store) walk(ctx context.Context, nodeHash types.Hash, prefix types.Path, fn func(types.Path, types.Hash) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	node, err := s.load(ctx, nodeHash)
	if err != nil {
		return err
	}
	for _, entry := range node.Entries {
		childPath := prefix.Child(entry.Name)
		if entry.Type == core.EntryLeaf {
			if err := fn(childPath, entry.Cid.Hash); err != nil {
				return err
			}
			continue
		}
		if err := s.walk(ctx, entry.Cid.Hash, childPath, fn); err != nil {
			return err
		}
	}
	return nil
}
