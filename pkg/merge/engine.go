// Package merge 实现树级别的三方合并。
// 输入是三个树根 (LCA / ours / theirs)，输出要么是一棵合并后的新树，
// 要么是 **全部** 冲突的清单 —— 引擎保证遍历完所有分歧路径才失败，
// 调用方一次就能看到完整的冲突集合，而不是挤牙膏式的一个一个来。
//
// 引擎自身对内容完全不感知：路径级的分类在这里做，
// 值级别的调和全部交给内容类型注册表里的 Merge 函数。
package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"mergevault/pkg/blob"
	"mergevault/pkg/content"
	"mergevault/pkg/tree"
	"mergevault/pkg/types"
)

// Conflict 描述一条无法自动调和的路径
type Conflict struct {
	Path   types.Path
	Base   types.Hash // LCA 处的内容 Hash，分叉前不存在时为空
	Ours   types.Hash
	Theirs types.Hash
	Reason string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Path, c.Reason)
}

type Engine struct {
	trees *tree.Store
	blobs *blob.Service
	reg   *content.Registry
}

func NewEngine(trees *tree.Store, blobs *blob.Service, reg *content.Registry) *Engine {
	return &Engine{trees: trees, blobs: blobs, reg: reg}
}

// pathDelta 是某条路径在一侧的变化
type pathDelta struct {
	path   types.Path
	change tree.Change
}

// Trees 执行三方合并。
// 返回值：合并成功时 (newRoot, nil, nil)；存在冲突时 ("", conflicts, nil)；
// 基础设施错误 (存储/解码) 时 err 非 nil。
// 除了写入新的 content/tree 对象 (在被引用前只是孤儿数据)，
// 整个过程没有任何外部可见的副作用 —— 中途取消不会留下半成品状态。
func (e *Engine) Trees(ctx context.Context, lca, ours, theirs types.Hash) (types.Hash, []Conflict, error) {
	if ours == theirs {
		return ours, nil, nil
	}

	// 1. 并发计算两侧相对 LCA 的 diff
	// 两次遍历互相独立，各写各的 map，不需要锁
	oursDiff := make(map[string]pathDelta)
	theirsDiff := make(map[string]pathDelta)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return e.trees.Diff(egCtx, lca, ours, func(p types.Path, ch tree.Change) error {
			oursDiff[p.String()] = pathDelta{path: p, change: ch}
			return nil
		})
	})
	eg.Go(func() error {
		return e.trees.Diff(egCtx, lca, theirs, func(p types.Path, ch tree.Change) error {
			theirsDiff[p.String()] = pathDelta{path: p, change: ch}
			return nil
		})
	})
	if err := eg.Wait(); err != nil {
		return "", nil, err
	}

	// 2. 以 ours 为底盘，逐路径调和
	// 只在 ours 侧改过的路径已经就位；需要处理的是 theirs 侧的改动
	// 和两侧都碰过的路径。按排序后的 key 遍历，保证结果确定。
	keys := make([]string, 0, len(theirsDiff))
	for k := range theirsDiff {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := ours
	var conflicts []Conflict

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		theirsD := theirsDiff[key]
		oursD, both := oursDiff[key]

		if !both {
			// 只有 theirs 改了 => 直接采用 theirs
			var err error
			result, err = e.apply(ctx, result, theirsD)
			if err != nil {
				return "", nil, err
			}
			continue
		}

		// 两侧都碰过同一条路径
		switch {
		case oursD.change.Type == tree.Removed && theirsD.change.Type == tree.Removed:
			// 都删了，无冲突，ours 底盘里已经没有了

		case oursD.change.B == theirsD.change.B:
			// 改成了同一个值 (按 Hash 判等)，无冲突

		case oursD.change.Type == tree.Removed || theirsD.change.Type == tree.Removed:
			// 一侧删除另一侧修改。
			// 规范编码保证 no-op 编辑根本不会出现在 diff 里，
			// 所以走到这里的修改一定是真实分歧 => 冲突。
			conflicts = append(conflicts, Conflict{
				Path:   theirsD.path,
				Base:   baseHash(oursD.change, theirsD.change),
				Ours:   oursD.change.B,
				Theirs: theirsD.change.B,
				Reason: "removed on one side, modified on the other",
			})

		default:
			// 两侧改得不一样 => 交给内容类型的三方合并
			merged, conflict, err := e.mergeContent(ctx, oursD, theirsD)
			if err != nil {
				return "", nil, err
			}
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
				continue
			}
			result, err = e.trees.Set(ctx, result, theirsD.path, merged)
			if err != nil {
				return "", nil, err
			}
		}
	}

	if len(conflicts) > 0 {
		return "", conflicts, nil
	}
	return result, nil, nil
}

// apply 把一侧的单条变化落到结果树上
func (e *Engine) apply(ctx context.Context, root types.Hash, d pathDelta) (types.Hash, error) {
	if d.change.Type == tree.Removed {
		return e.trees.Remove(ctx, root, d.path)
	}
	return e.trees.Set(ctx, root, d.path, d.change.B)
}

// baseHash 从两侧的 Change 里取 LCA 值 (Added 时两侧都没有 A)
func baseHash(a, b tree.Change) types.Hash {
	if !a.A.IsZero() {
		return a.A
	}
	return b.A
}

// mergeContent 调用内容类型的三方合并函数
// 返回 (合并后内容的 Hash, 冲突, 基础设施错误) 三选一
func (e *Engine) mergeContent(ctx context.Context, oursD, theirsD pathDelta) (types.Hash, *Conflict, error) {
	oursBlob, oursData, err := e.blobs.Load(ctx, oursD.change.B)
	if err != nil {
		return "", nil, err
	}
	theirsBlob, theirsData, err := e.blobs.Load(ctx, theirsD.change.B)
	if err != nil {
		return "", nil, err
	}

	// 内容类型本身分歧了，没有任何 merge 函数可调
	if oursBlob.ContentType != theirsBlob.ContentType {
		return "", &Conflict{
			Path:   theirsD.path,
			Base:   baseHash(oursD.change, theirsD.change),
			Ours:   oursD.change.B,
			Theirs: theirsD.change.B,
			Reason: fmt.Sprintf("content type diverged: %q vs %q", oursBlob.ContentType, theirsBlob.ContentType),
		}, nil
	}

	ct, err := e.reg.Get(oursBlob.ContentType)
	if err != nil {
		return "", nil, err
	}

	oursVal, err := ct.Decode(oursData)
	if err != nil {
		return "", nil, err
	}
	theirsVal, err := ct.Decode(theirsData)
	if err != nil {
		return "", nil, err
	}

	// “old 值的 promise”在这里同步解析成一个普通的可空值
	var oldVal any
	base := baseHash(oursD.change, theirsD.change)
	if !base.IsZero() {
		_, baseData, err := e.blobs.Load(ctx, base)
		if err != nil {
			return "", nil, err
		}
		oldVal, err = ct.Decode(baseData)
		if err != nil {
			return "", nil, err
		}
	}

	mergedVal, err := ct.Merge(oldVal, oursVal, theirsVal)
	if err != nil {
		var cc *content.Conflict
		if errors.As(err, &cc) {
			return "", &Conflict{
				Path:   theirsD.path,
				Base:   base,
				Ours:   oursD.change.B,
				Theirs: theirsD.change.B,
				Reason: cc.Reason,
			}, nil
		}
		return "", nil, fmt.Errorf("content merge failed at %s: %w", theirsD.path, err)
	}

	encoded, err := ct.Encode(mergedVal)
	if err != nil {
		return "", nil, err
	}
	mergedHash, err := e.blobs.Write(ctx, ct.Name(), encoded)
	if err != nil {
		return "", nil, err
	}
	return mergedHash, nil, nil
}
