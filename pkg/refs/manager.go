// Package refs 是 Branch Manager：可变命名指针 Branch -> Commit Hash。
// 除了这里的 CAS，系统里所有结构 (commit/tree/blob) 都是不可变的，
// 写入后可以被任意多的读者无锁共享。
package refs

import (
	"context"
	"errors"
	"fmt"

	"mergevault/pkg/meta"
	"mergevault/pkg/types"
)

var (
	// ErrNoBranch 分支不存在
	ErrNoBranch = errors.New("branch not found")

	// ErrStaleHead 乐观并发冲突：读到的 head 已经被别的写者推进了
	// 可恢复：重读 head、重算、重试
	ErrStaleHead = errors.New("stale head (concurrent update)")

	// ErrBranchExists clone 的目标分支已经存在
	ErrBranchExists = errors.New("branch already exists")
)

// Manager 负责管理分支引用
type Manager struct {
	repo *meta.Repository
}

func NewManager(repo *meta.Repository) *Manager {
	return &Manager{repo: repo}
}

// Head 读取分支当前指向的 Commit Hash 和版本号
// 版本号和 Hash 一起读出，后续 SetHead 用它做 CAS —— 二者配对使用
// 等价于“期望 head 是某个值”的比较交换。
func (m *Manager) Head(ctx context.Context, branch string) (types.Hash, int64, error) {
	ref, err := m.repo.GetRef(ctx, branch)
	if errors.Is(err, meta.ErrRefNotFound) {
		return "", 0, fmt.Errorf("%w: %s", ErrNoBranch, branch)
	}
	if err != nil {
		return "", 0, err
	}
	return types.Hash(ref.CommitHash), ref.Version, nil
}

// SetHead 原子推进分支指针
// expectedVersion 是之前 Head 返回的版本号；0 表示创建新分支。
// 当前版本不匹配时返回 ErrStaleHead，调用方自行决定重试策略。
func (m *Manager) SetHead(ctx context.Context, branch string, newHead types.Hash, expectedVersion int64) error {
	err := m.repo.UpdateRef(ctx, branch, newHead, expectedVersion)
	if errors.Is(err, meta.ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %s", ErrStaleHead, branch)
	}
	return err
}

// Clone 创建 dst 分支，指向 src 当前的 head
// 之后两个分支完全独立，互相看不到对方的写入，直到显式 merge。
func (m *Manager) Clone(ctx context.Context, src, dst string) error {
	head, _, err := m.Head(ctx, src)
	if err != nil {
		return err
	}

	err = m.repo.UpdateRef(ctx, dst, head, 0)
	if errors.Is(err, meta.ErrConcurrentUpdate) {
		return fmt.Errorf("%w: %s", ErrBranchExists, dst)
	}
	return err
}

// Delete 删除分支 (指向的提交不受影响，只是不再被引用)
func (m *Manager) Delete(ctx context.Context, branch string) error {
	err := m.repo.DeleteRef(ctx, branch)
	if errors.Is(err, meta.ErrRefNotFound) {
		return fmt.Errorf("%w: %s", ErrNoBranch, branch)
	}
	return err
}

// List 返回所有分支名和各自的 head
func (m *Manager) List(ctx context.Context) (map[string]types.Hash, error) {
	refs, err := m.repo.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	heads := make(map[string]types.Hash, len(refs))
	for _, ref := range refs {
		heads[ref.Name] = types.Hash(ref.CommitHash)
	}
	return heads, nil
}
