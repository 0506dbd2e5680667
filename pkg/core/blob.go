package core

import (
	"fmt"

	"mergevault/pkg/types"
)

// Blob 是树的内容叶子：一段带内容类型标签的编码后数据
// 两种形态：
//   - 内联 (Data != nil)：小值直接嵌在对象里
//   - 外联 (SpanCid != nil)：大值被切分，这里只留 Span 索引的引用
//
// ContentType 记录的是注册表里的类型名 (如 "counter")，
// merge 引擎靠它找到对应的三方合并函数。
type Blob struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal     ObjectType `cbor:"t"`
	ContentType string     `cbor:"ct"`
	Data        []byte     `cbor:"d,omitempty"`
	SpanCid     *Link      `cbor:"sp,omitempty"`
	Size        int64      `cbor:"s"`
}

// NewInlineBlob 创建内联 Blob
func NewInlineBlob(contentType string, data []byte) (*Blob, error) {
	b := &Blob{
		TypeVal:     TypeBlob,
		ContentType: contentType,
		Data:        data,
		Size:        int64(len(data)),
	}
	h, raw, err := CalculateHash(b)
	if err != nil {
		return nil, err
	}
	b.hash = h
	b.rawBytes = raw
	return b, nil
}

// NewSpanBlob 创建指向 Span 的外联 Blob
func NewSpanBlob(contentType string, spanHash types.Hash, size int64) (*Blob, error) {
	link := NewLink(spanHash)
	b := &Blob{
		TypeVal:     TypeBlob,
		ContentType: contentType,
		SpanCid:     &link,
		Size:        size,
	}
	h, raw, err := CalculateHash(b)
	if err != nil {
		return nil, err
	}
	b.hash = h
	b.rawBytes = raw
	return b, nil
}

func (b *Blob) Inline() bool { return b.SpanCid == nil }

func (b *Blob) Type() ObjectType { return TypeBlob }
func (b *Blob) ID() types.Hash   { return b.hash }
func (b *Blob) Bytes() []byte    { return b.rawBytes }

func DecodeBlob(data []byte) (*Blob, error) {
	var b Blob
	if err := DecodeObject(data, &b); err != nil {
		return nil, err
	}
	if b.TypeVal != TypeBlob {
		return nil, fmt.Errorf("object is not a blob, got: %s", b.TypeVal)
	}
	b.hash = CalculateRawHash(data)
	b.rawBytes = data
	return &b, nil
}
