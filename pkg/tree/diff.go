package tree

import (
	"context"

	"mergevault/pkg/core"
	"mergevault/pkg/types"
)

// Diff 对两棵树做结构化对比，按排序后的 Path 顺序产出差异。
// 核心性能性质：子树 Hash 相同就整棵跳过，完全不展开 ——
// 代价只和改动区域的大小成正比，和整棵树的大小无关。
// 对同样的两个 Hash 重复调用，输出序列完全一致 (确定且可重放)。
func (s *Store) Diff(ctx context.Context, a, b types.Hash, visit VisitFunc) error {
	if a == b {
		return nil
	}
	return s.diffNodes(ctx, a, b, nil, visit)
}

func (s *Store) diffNodes(ctx context.Context, a, b types.Hash, prefix types.Path, visit VisitFunc) error {
	// 每层递归前给调用方一个取消的机会
	if err := ctx.Err(); err != nil {
		return err
	}

	nodeA, err := s.load(ctx, a)
	if err != nil {
		return err
	}
	nodeB, err := s.load(ctx, b)
	if err != nil {
		return err
	}

	// 双指针合并两个有序 entry 列表
	i, j := 0, 0
	for i < len(nodeA.Entries) || j < len(nodeB.Entries) {
		switch {
		case j >= len(nodeB.Entries) || (i < len(nodeA.Entries) && nodeA.Entries[i].Name < nodeB.Entries[j].Name):
			// 只在 A 侧 => 整个删除
			if err := s.emitSubtree(ctx, nodeA.Entries[i], prefix, Removed, visit); err != nil {
				return err
			}
			i++
		case i >= len(nodeA.Entries) || nodeB.Entries[j].Name < nodeA.Entries[i].Name:
			// 只在 B 侧 => 整个新增
			if err := s.emitSubtree(ctx, nodeB.Entries[j], prefix, Added, visit); err != nil {
				return err
			}
			j++
		default:
			// 两侧同名
			entryA, entryB := nodeA.Entries[i], nodeB.Entries[j]
			i++
			j++

			if entryA.Cid.Hash == entryB.Cid.Hash && entryA.Type == entryB.Type {
				continue // 关键优化：Hash 相同的子树直接跳过
			}

			childPath := prefix.Child(entryA.Name)
			switch {
			case entryA.Type == core.EntryLeaf && entryB.Type == core.EntryLeaf:
				if err := visit(childPath, Change{Type: Modified, A: entryA.Cid.Hash, B: entryB.Cid.Hash}); err != nil {
					return err
				}
			case entryA.Type == core.EntryDir && entryB.Type == core.EntryDir:
				if err := s.diffNodes(ctx, entryA.Cid.Hash, entryB.Cid.Hash, childPath, visit); err != nil {
					return err
				}
			default:
				// leaf 和 dir 互换形态：老形态整体删除，新形态整体新增
				if err := s.emitSubtree(ctx, entryA, prefix, Removed, visit); err != nil {
					return err
				}
				if err := s.emitSubtree(ctx, entryB, prefix, Added, visit); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// emitSubtree 把一条 entry 下的所有 leaf 作为同一种差异上报
func (s *Store) emitSubtree(ctx context.Context, entry core.TreeEntry, prefix types.Path, kind ChangeType, visit VisitFunc) error {
	path := prefix.Child(entry.Name)
	if entry.Type == core.EntryLeaf {
		change := Change{Type: kind}
		if kind == Added {
			change.B = entry.Cid.Hash
		} else {
			change.A = entry.Cid.Hash
		}
		return visit(path, change)
	}

	return s.walk(ctx, entry.Cid.Hash, path, func(leafPath types.Path, content types.Hash) error {
		change := Change{Type: kind}
		if kind == Added {
			change.B = content
		} else {
			change.A = content
		}
		return visit(leafPath, change)
	})
}
