package vault

import (
	"context"
	"errors"
	"fmt"

	"mergevault/pkg/core"
	"mergevault/pkg/refs"
	"mergevault/pkg/types"
)

// MergeInto 把 from 分支合并进 into 分支。
//
// 状态机：ComputingLCA -> DiffingBothSides -> ReconcilingPaths -> Succeeded | Conflicted。
// 在最终 SetHead 之前没有任何对外可见的副作用：要么一个完整的
// merge 提交落地、分支指针前移，要么一切如旧。
//
// 乐观重试：CAS 输给并发写者时，针对 into 的新 head 重算 LCA 和
// merge 再试，最多 maxRetries 次；次数耗尽返回 ErrContention。
// 冲突则直接以 *ConflictError 终止，不参与重试。
func (v *Vault) MergeInto(ctx context.Context, into, from string, info core.Info) (types.Hash, error) {
	for attempt := 0; attempt < v.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		newHead, err := v.mergeOnce(ctx, into, from, info)
		if errors.Is(err, refs.ErrStaleHead) {
			continue // 重读 head 重算
		}
		if err != nil {
			return "", err
		}
		return newHead, nil
	}
	return "", fmt.Errorf("%w: branch %s", ErrContention, into)
}

// mergeOnce 执行一轮完整的 merge 尝试
func (v *Vault) mergeOnce(ctx context.Context, into, from string, info core.Info) (types.Hash, error) {
	intoHead, intoVersion, err := v.refs.Head(ctx, into)
	if err != nil {
		return "", err
	}
	fromHead, _, err := v.refs.Head(ctx, from)
	if err != nil {
		return "", err
	}

	if intoHead == fromHead {
		return intoHead, nil // 已经一致
	}

	// Fast-forward 判定：into 落后于 from 且没有自己的分叉提交时，
	// 直接把指针推到 from 的 head，不做任何 merge 计算，也不产生新提交
	if ok, err := v.graph.IsAncestor(ctx, intoHead, fromHead); err != nil {
		return "", err
	} else if ok {
		if err := v.refs.SetHead(ctx, into, fromHead, intoVersion); err != nil {
			return "", err
		}
		return fromHead, nil
	}

	// 反向包含：from 的东西 into 全有了，no-op
	if ok, err := v.graph.IsAncestor(ctx, fromHead, intoHead); err != nil {
		return "", err
	} else if ok {
		return intoHead, nil
	}

	// 真正的三方合并
	lcaTree, err := v.lcaTree(ctx, intoHead, fromHead)
	if err != nil {
		return "", err
	}

	intoCommit, err := v.graph.Load(ctx, intoHead)
	if err != nil {
		return "", err
	}
	fromCommit, err := v.graph.Load(ctx, fromHead)
	if err != nil {
		return "", err
	}

	mergedRoot, conflicts, err := v.engine.Trees(ctx, lcaTree, intoCommit.TreeCid.Hash, fromCommit.TreeCid.Hash)
	if err != nil {
		return "", err
	}
	if len(conflicts) > 0 {
		return "", &ConflictError{Conflicts: conflicts}
	}

	// 双亲提交：[into, from] 的顺序是约定 (第一父是被合并进的分支)
	commit, err := v.commit(ctx, mergedRoot, []types.Hash{intoHead, fromHead}, info)
	if err != nil {
		return "", err
	}

	if err := v.refs.SetHead(ctx, into, commit.ID(), intoVersion); err != nil {
		return "", err
	}
	return commit.ID(), nil
}

// lcaTree 返回两个提交 LCA 的树根
// 两条历史完全不相交时按“从空树合并”处理
func (v *Vault) lcaTree(ctx context.Context, a, b types.Hash) (types.Hash, error) {
	lca, ok, err := v.graph.FindLCA(ctx, a, b)
	if err != nil {
		return "", err
	}
	if !ok {
		return v.trees.EmptyRoot(ctx)
	}

	c, err := v.graph.Load(ctx, lca)
	if err != nil {
		return "", err
	}
	return c.TreeCid.Hash, nil
}
