package vault

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mergevault/pkg/core"
	"mergevault/pkg/tree"
	"mergevault/pkg/types"
)

// Batch 把多条写入/删除聚合成一个提交
// 并发安全：多个 goroutine 可以同时往一个 Batch 里塞条目。
type Batch struct {
	mu      sync.Mutex
	sets    map[string]stagedValue
	removes map[string]bool
}

type stagedValue struct {
	typeName string
	value    any
}

func NewBatch() *Batch {
	return &Batch{
		sets:    make(map[string]stagedValue),
		removes: make(map[string]bool),
	}
}

// Set 暂存一条写入 (同 path 后写覆盖先写)
func (b *Batch) Set(path, typeName string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets[path] = stagedValue{typeName: typeName, value: value}
	delete(b.removes, path)
}

// Remove 暂存一条删除
func (b *Batch) Remove(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removes[path] = true
	delete(b.sets, path)
}

func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sets) + len(b.removes)
}

// Apply 把整个 Batch 作为一个提交落到分支上
// 和 Write 一样是单次 CAS，抢先者赢，输家拿 refs.ErrStaleHead。
func (v *Vault) Apply(ctx context.Context, branch string, batch *Batch, info core.Info) (types.Hash, error) {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	if len(batch.sets)+len(batch.removes) == 0 {
		return "", fmt.Errorf("empty batch")
	}

	head, version, root, err := v.headTree(ctx, branch)
	if err != nil {
		return "", err
	}

	// 1. 先把所有值编码落盘，拿到 content Hash
	staged := make(map[string]types.Hash, len(batch.sets))
	for path, sv := range batch.sets {
		ct, err := v.reg.Get(sv.typeName)
		if err != nil {
			return "", err
		}
		encoded, err := ct.Encode(sv.value)
		if err != nil {
			return "", fmt.Errorf("encode failed for %s: %w", path, err)
		}
		blobHash, err := v.blobs.Write(ctx, sv.typeName, encoded)
		if err != nil {
			return "", err
		}
		staged[path] = blobHash
	}

	// 2. 构建新树
	// 空分支走批量构建 (一次性自底向上，少写一堆中间节点)，
	// 非空分支逐条叠加，保持结构共享。
	newRoot := root
	if empty, err := v.isEmptyTree(ctx, root); err != nil {
		return "", err
	} else if empty && len(batch.removes) == 0 {
		builder := tree.NewBuilder(v.trees)
		newRoot, err = builder.Build(ctx, staged)
		if err != nil {
			return "", err
		}
	} else {
		// 排序保证同一个 Batch 重放出同样的中间对象序列
		paths := make([]string, 0, len(staged))
		for p := range staged {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			newRoot, err = v.trees.Set(ctx, newRoot, types.ParsePath(p), staged[p])
			if err != nil {
				return "", err
			}
		}

		removePaths := make([]string, 0, len(batch.removes))
		for p := range batch.removes {
			removePaths = append(removePaths, p)
		}
		sort.Strings(removePaths)

		for _, p := range removePaths {
			newRoot, err = v.trees.Remove(ctx, newRoot, types.ParsePath(p))
			if err != nil {
				return "", err
			}
		}
	}

	if newRoot == root {
		return head, nil // 净效果为零，不制造空提交
	}

	commit, err := v.commit(ctx, newRoot, []types.Hash{head}, info)
	if err != nil {
		return "", err
	}

	if err := v.refs.SetHead(ctx, branch, commit.ID(), version); err != nil {
		return "", err
	}
	return commit.ID(), nil
}

func (v *Vault) isEmptyTree(ctx context.Context, root types.Hash) (bool, error) {
	empty, err := v.trees.EmptyRoot(ctx)
	if err != nil {
		return false, err
	}
	return root == empty || root.IsZero(), nil
}
