// Package content 定义可插拔的内容类型能力集。
// 存储引擎对值本身完全不感知，所有类型相关的逻辑
// (编码/解码/判等/三方合并) 都由这里的 Type 实现提供。
package content

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownType = errors.New("unknown content type")

// Type 是一个内容类型必须具备的能力集
type Type interface {
	// Name 注册名，会记录在 Blob 对象里
	Name() string

	// Encode 把值编码成字节。必须是确定性的：
	// 结构相等的值编码结果必须逐字节相同 (Hash 相等依赖这一点)。
	Encode(v any) ([]byte, error)

	// Decode 从字节还原值。必须兼容该类型历史上所有的编码版本。
	Decode(data []byte) (any, error)

	// Equal 结构判等
	Equal(a, b any) bool

	// Merge 三方合并。old 是 LCA 处的值，两边分叉前不存在时为 nil。
	// 无法调和时返回 *Conflict 类型的错误。
	// 如果类型有多个编码版本，升级到统一表示是 Merge 自己的责任，
	// 引擎不做任何隐式迁移。
	Merge(old, ours, theirs any) (any, error)
}

// Conflict 表示一次无法自动调和的合并
// 它只是一个普通的 error 值，调用方用 errors.As 识别
type Conflict struct {
	Reason string
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("merge conflict: %s", c.Reason)
}

// Conflictf 便捷构造
func Conflictf(format string, args ...any) *Conflict {
	return &Conflict{Reason: fmt.Sprintf(format, args...)}
}

// Registry 是内容类型注册表
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// NewDefaultRegistry 返回带内置类型的注册表
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CounterType{})
	r.Register(BytesType{})
	return r
}

func (r *Registry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name()] = t
}

func (r *Registry) Get(name string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}
