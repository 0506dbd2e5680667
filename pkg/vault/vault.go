// Package vault 是对外的门面：把 Object Store、树、提交 DAG、
// merge 引擎和 Branch Manager 组装成一个可分支、可合并的 KV 仓库。
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mergevault/pkg/blob"
	"mergevault/pkg/content"
	"mergevault/pkg/core"
	"mergevault/pkg/dag"
	"mergevault/pkg/merge"
	"mergevault/pkg/meta"
	"mergevault/pkg/refs"
	"mergevault/pkg/storage"
	"mergevault/pkg/tree"
	"mergevault/pkg/types"
)

var (
	// ErrNotFound 分支上没有这个 path
	ErrNotFound = errors.New("path not found")

	// ErrContention 重试预算耗尽：持续有并发写者抢占同一分支
	// 不会被静默吞掉，上层可以选择再发起一轮
	ErrContention = errors.New("merge retry budget exhausted under contention")
)

// ConflictError 携带一次失败合并的 **全部** 冲突
type ConflictError struct {
	Conflicts []merge.Conflict
}

func (e *ConflictError) Error() string {
	reasons := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		reasons[i] = c.String()
	}
	return fmt.Sprintf("merge failed with %d conflict(s): %s", len(e.Conflicts), strings.Join(reasons, "; "))
}

// 默认的 merge 重试次数 (乐观并发输掉后重算重试的上限)
const defaultMaxRetries = 3

type Vault struct {
	store  storage.Store
	trees  *tree.Store
	blobs  *blob.Service
	graph  *dag.Graph
	engine *merge.Engine
	refs   *refs.Manager
	reg    *content.Registry
	meta   *meta.Repository

	maxRetries int
}

func New(store storage.Store, metaRepo *meta.Repository, reg *content.Registry) *Vault {
	trees := tree.NewStore(store)
	blobs := blob.NewService(store)
	return &Vault{
		store:      store,
		trees:      trees,
		blobs:      blobs,
		graph:      dag.NewGraph(store),
		engine:     merge.NewEngine(trees, blobs, reg),
		refs:       refs.NewManager(metaRepo),
		reg:        reg,
		meta:       metaRepo,
		maxRetries: defaultMaxRetries,
	}
}

// Refs 暴露 Branch Manager (CLI 的 branch 子命令直接用)
func (v *Vault) Refs() *refs.Manager { return v.refs }

// Graph 暴露提交 DAG 的只读访问
func (v *Vault) Graph() *dag.Graph { return v.graph }

// Meta 暴露 SQL 元数据索引 (历史查询走这里)
func (v *Vault) Meta() *meta.Repository { return v.meta }

// Init 创建一个指向空树根提交的新分支
func (v *Vault) Init(ctx context.Context, branch string, info core.Info) (types.Hash, error) {
	emptyRoot, err := v.trees.EmptyRoot(ctx)
	if err != nil {
		return "", err
	}

	commit, err := v.commit(ctx, emptyRoot, nil, info)
	if err != nil {
		return "", err
	}

	if err := v.refs.SetHead(ctx, branch, commit.ID(), 0); err != nil {
		return "", err
	}
	return commit.ID(), nil
}

// commit 创建提交并同步投影到 SQL 索引
func (v *Vault) commit(ctx context.Context, treeHash types.Hash, parents []types.Hash, info core.Info) (*core.Commit, error) {
	c, err := v.graph.CreateCommit(ctx, treeHash, parents, info)
	if err != nil {
		return nil, err
	}
	if err := v.meta.IndexCommit(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// headTree 读取分支 head 和它的树根
func (v *Vault) headTree(ctx context.Context, branch string) (head types.Hash, version int64, treeRoot types.Hash, err error) {
	head, version, err = v.refs.Head(ctx, branch)
	if err != nil {
		return "", 0, "", err
	}
	c, err := v.graph.Load(ctx, head)
	if err != nil {
		return "", 0, "", err
	}
	return head, version, c.TreeCid.Hash, nil
}

// Read 读取分支上 path 处的值，返回 (值, 内容类型名)
func (v *Vault) Read(ctx context.Context, branch, path string) (any, string, error) {
	_, _, root, err := v.headTree(ctx, branch)
	if err != nil {
		return nil, "", err
	}

	contentHash, ok, err := v.trees.Get(ctx, root, types.ParsePath(path))
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: %s on branch %s", ErrNotFound, path, branch)
	}

	b, data, err := v.blobs.Load(ctx, contentHash)
	if err != nil {
		return nil, "", err
	}

	ct, err := v.reg.Get(b.ContentType)
	if err != nil {
		return nil, "", err
	}
	val, err := ct.Decode(data)
	if err != nil {
		return nil, "", err
	}
	return val, b.ContentType, nil
}

// Write 把值写到分支的 path 上，生成一个新提交并推进分支。
// 单次 CAS：并发写者抢先时返回 refs.ErrStaleHead，由调用方决定重试
// (merge 有内建重试，普通写入保持显式，避免默默覆盖别人的语义)。
func (v *Vault) Write(ctx context.Context, branch, path, typeName string, value any, info core.Info) (types.Hash, error) {
	ct, err := v.reg.Get(typeName)
	if err != nil {
		return "", err
	}
	encoded, err := ct.Encode(value)
	if err != nil {
		return "", err
	}

	head, version, root, err := v.headTree(ctx, branch)
	if err != nil {
		return "", err
	}

	blobHash, err := v.blobs.Write(ctx, typeName, encoded)
	if err != nil {
		return "", err
	}

	newRoot, err := v.trees.Set(ctx, root, types.ParsePath(path), blobHash)
	if err != nil {
		return "", err
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

// Remove 删除分支上的 path (path 不存在时是 no-op 提交，直接短路)
func (v *Vault) Remove(ctx context.Context, branch, path string, info core.Info) (types.Hash, error) {
	head, version, root, err := v.headTree(ctx, branch)
	if err != nil {
		return "", err
	}

	newRoot, err := v.trees.Remove(ctx, root, types.ParsePath(path))
	if err != nil {
		return "", err
	}
	if newRoot == root {
		return head, nil // 什么都没删，不制造空提交
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

// Clone 从 src 分出一个独立分支 dst
func (v *Vault) Clone(ctx context.Context, src, dst string) error {
	return v.refs.Clone(ctx, src, dst)
}

// Diff 对两个提交的树做结构化对比
func (v *Vault) Diff(ctx context.Context, commitA, commitB types.Hash, visit tree.VisitFunc) error {
	a, err := v.graph.Load(ctx, commitA)
	if err != nil {
		return err
	}
	b, err := v.graph.Load(ctx, commitB)
	if err != nil {
		return err
	}
	return v.trees.Diff(ctx, a.TreeCid.Hash, b.TreeCid.Hash, visit)
}

// Log 沿第一父链返回分支最近的提交 (新 -> 旧)
func (v *Vault) Log(ctx context.Context, branch string, limit int) ([]*core.Commit, error) {
	head, _, err := v.refs.Head(ctx, branch)
	if err != nil {
		return nil, err
	}

	var out []*core.Commit
	cursor := head
	for !cursor.IsZero() && (limit <= 0 || len(out) < limit) {
		c, err := v.graph.Load(ctx, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, c)

		parents := c.ParentHashes()
		if len(parents) == 0 {
			break
		}
		cursor = parents[0]
	}
	return out, nil
}
