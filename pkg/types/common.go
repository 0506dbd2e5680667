// pkg/types/common.go
package types

import "strings"

// Hash 代表对象的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool  { return h == "" }
func (h Hash) IsValid() bool { return len(h) == 64 } // 简单的长度检查

// Path 是树中的逻辑位置，由若干 step 组成 (如 "metrics/daily/visits")
// 序列化形式用 "/" 连接；step 本身不允许包含 "/"
type Path []string

// ParsePath 把 "a/b/c" 解析成 Path
// 空串和纯 "/" 都代表根（空路径）
func ParsePath(s string) Path {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "/"))
}

func (p Path) String() string { return strings.Join(p, "/") }

func (p Path) IsRoot() bool { return len(p) == 0 }

// Child 返回追加一个 step 后的新 Path（不修改原值）
func (p Path) Child(step string) Path {
	child := make(Path, 0, len(p)+1)
	child = append(child, p...)
	return append(child, step)
}

// Equal 逐 step 比较
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Compare 定义 Path 的全序关系 (diff 的输出顺序依赖它)
// 规则：逐 step 字典序，前缀排在扩展之前
func (p Path) Compare(other Path) int {
	n := min(len(p), len(other))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	default:
		return 0
	}
}
