package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/types"
)

// Adapter 是纯内存的 storage.Store 实现
// 用途：单元测试，以及嵌入式场景下的临时仓库。
// 对象一旦写入就不可变，所以并发读不需要拷贝。
type Adapter struct {
	mu      sync.RWMutex
	objects map[types.Hash][]byte
}

func NewAdapter() *Adapter {
	return &Adapter{
		objects: make(map[types.Hash][]byte),
	}
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := obj.ID()
	if _, exists := s.objects[hash]; exists {
		return nil // 幂等：同 Hash 内容必然相同
	}

	data := obj.Bytes()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[hash] = buf
	return nil
}

func (s *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[hash]
	s.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[hash]
	return ok, nil
}

// Len 当前对象数量 (测试用)
func (s *Adapter) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
