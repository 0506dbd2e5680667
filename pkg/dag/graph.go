// Package dag 维护提交历史：一张由不可变 Commit 构成的 DAG。
// Commit 之间用 Hash 引用父节点，而 Hash 只能指向已经存在的对象，
// 所以图不可能出现环 —— 无环性由构造方式保证，不需要运行时检查。
package dag

import (
	"context"
	"errors"
	"fmt"

	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/types"
)

var ErrIntegrity = errors.New("commit graph integrity error")

type Graph struct {
	store storage.Store
}

func NewGraph(store storage.Store) *Graph {
	return &Graph{store: store}
}

// CreateCommit 生成并持久化一个新提交
// 纯函数 + 幂等写：同样的输入永远得到同一个 Hash，重复提交是 no-op。
func (g *Graph) CreateCommit(ctx context.Context, tree types.Hash, parents []types.Hash, info core.Info) (*core.Commit, error) {
	c, err := core.NewCommit(tree, parents, info)
	if err != nil {
		return nil, err
	}
	if err := g.store.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store commit: %w", err)
	}
	return c, nil
}

// Load 按 Hash 读取提交
func (g *Graph) Load(ctx context.Context, hash types.Hash) (*core.Commit, error) {
	data, err := storage.GetBytes(ctx, g.store, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: dangling commit %s", ErrIntegrity, hash)
	}
	if err != nil {
		return nil, err
	}
	return core.DecodeCommit(data)
}

// ancestorDepths 从 start 沿 parent 边做 BFS，
// 返回每个可达提交到 start 的最短距离 (start 自身距离 0)
func (g *Graph) ancestorDepths(ctx context.Context, start types.Hash) (map[types.Hash]int, error) {
	depths := map[types.Hash]int{start: 0}
	queue := []types.Hash{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash := queue[0]
		queue = queue[1:]

		c, err := g.Load(ctx, hash)
		if err != nil {
			return nil, err
		}
		for _, parent := range c.ParentHashes() {
			if _, seen := depths[parent]; seen {
				continue
			}
			depths[parent] = depths[hash] + 1
			queue = append(queue, parent)
		}
	}
	return depths, nil
}

// FindLCA 计算两个提交的最近公共祖先。
// 规则：两侧都可达的提交里，取“两侧距离之和”最小的那个；
// 并列时取 Hash 字典序最小的 (确定性 tie-break)。
// 两条历史完全不相交时返回 ok=false，调用方应当按“空树为基线”合并。
func (g *Graph) FindLCA(ctx context.Context, a, b types.Hash) (types.Hash, bool, error) {
	if a == b {
		return a, true, nil
	}

	depthsA, err := g.ancestorDepths(ctx, a)
	if err != nil {
		return "", false, err
	}
	depthsB, err := g.ancestorDepths(ctx, b)
	if err != nil {
		return "", false, err
	}

	var (
		best     types.Hash
		bestDist = -1
	)
	for hash, da := range depthsA {
		db, ok := depthsB[hash]
		if !ok {
			continue
		}
		dist := da + db
		if bestDist == -1 || dist < bestDist || (dist == bestDist && hash < best) {
			best = hash
			bestDist = dist
		}
	}

	if bestDist == -1 {
		return "", false, nil
	}
	return best, true, nil
}

// IsAncestor 判断 anc 是否是 desc 的祖先 (含相等)
// Branch Manager 用它做 fast-forward 判定。
func (g *Graph) IsAncestor(ctx context.Context, anc, desc types.Hash) (bool, error) {
	if anc == desc {
		return true, nil
	}

	seen := map[types.Hash]bool{desc: true}
	queue := []types.Hash{desc}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		hash := queue[0]
		queue = queue[1:]

		c, err := g.Load(ctx, hash)
		if err != nil {
			return false, err
		}
		for _, parent := range c.ParentHashes() {
			if parent == anc {
				return true, nil
			}
			if !seen[parent] {
				seen[parent] = true
				queue = append(queue, parent)
			}
		}
	}
	return false, nil
}
