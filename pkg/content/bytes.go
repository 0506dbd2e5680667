package content

import (
	"bytes"
	"fmt"
)

// BytesType 是最保守的内容类型：不透明字节串
// 没有任何可自动调和的结构，两边改得不一样就是冲突。
type BytesType struct{}

func (BytesType) Name() string { return "bytes" }

func (BytesType) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		if s, sok := v.(string); sok {
			return []byte(s), nil
		}
		return nil, fmt.Errorf("bytes: unsupported value type %T", v)
	}
	return b, nil
}

func (BytesType) Decode(data []byte) (any, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (t BytesType) Equal(a, b any) bool {
	ab, err1 := t.Encode(a)
	bb, err2 := t.Encode(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func (t BytesType) Merge(old, ours, theirs any) (any, error) {
	// 两边落在同一个值上，不算冲突 (引擎按 Hash 判等时通常已经拦下)
	if t.Equal(ours, theirs) {
		return ours, nil
	}
	return nil, Conflictf("opaque bytes modified on both sides")
}
