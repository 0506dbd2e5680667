package storage

import (
	"context"
	"errors"
	"io"

	"mergevault/pkg/core"
	"mergevault/pkg/types"
)

var (
	ErrNotFound = errors.New("object not found")
)

// Store defines the interface for a storage backend.
// Implementations can be local disk, cloud storage, or in-memory storage.
type Store interface {
	// Put 将一个核心对象持久化
	// 它不需要返回 Hash，因为 Hash 已经在 core.Object 里了
	// CAS 语义：同一个 Hash 重复写入是幂等的
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据
	// 注意：这里返回的是 io.ReadCloser 而不是 []byte
	// 原因：为了支持大值的流式读取，避免一次性把 100MB 读进内存
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在 (用于去重逻辑)
	Has(ctx context.Context, hash types.Hash) (bool, error)
}

// GetBytes 是 Get 的便捷封装：小对象 (tree/commit/blob) 直接读成字节
func GetBytes(ctx context.Context, s Store, hash types.Hash) ([]byte, error) {
	r, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
