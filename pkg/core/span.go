package core

import (
	"fmt"

	"mergevault/pkg/types"
)

// ChunkLink 描述了 Span 对底层 Chunk 的引用
type ChunkLink struct {
	Cid  Link  `cbor:"h"`
	Size int64 `cbor:"s"` // 这个 Chunk 的大小 (用于计算 offset)
}

// Span 把散乱的 Chunk 按顺序组装成一个逻辑上的大值
type Span struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal   ObjectType  `cbor:"t"`
	TotalSize int64       `cbor:"ts"`
	Chunks    []ChunkLink `cbor:"cs"`
}

// NewSpan 创建一个新的大值索引节点
func NewSpan(totalSize int64, chunks []ChunkLink) (*Span, error) {
	node := &Span{
		TypeVal:   TypeSpan,
		TotalSize: totalSize,
		Chunks:    chunks,
	}
	h, b, err := CalculateHash(node)
	if err != nil {
		return nil, err
	}
	node.hash = h
	node.rawBytes = b
	return node, nil
}

func (s *Span) Type() ObjectType { return TypeSpan }
func (s *Span) ID() types.Hash   { return s.hash }
func (s *Span) Bytes() []byte    { return s.rawBytes }
func (s *Span) Size() int64      { return s.TotalSize }

func DecodeSpan(data []byte) (*Span, error) {
	var s Span
	if err := DecodeObject(data, &s); err != nil {
		return nil, err
	}
	if s.TypeVal != TypeSpan {
		return nil, fmt.Errorf("object is not a span, got: %s", s.TypeVal)
	}
	s.hash = CalculateRawHash(data)
	s.rawBytes = data
	return &s, nil
}
