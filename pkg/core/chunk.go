package core

import "mergevault/pkg/types"

// Chunk 是最底层的原始数据片段
// 注意：Chunk 不做 CBOR 包装，存的就是原始字节。
// 这样同样的数据片段无论来自哪个值都会得到同一个 Hash (跨值去重)。
type Chunk struct {
	hash types.Hash
	data []byte
}

func NewChunk(data []byte) *Chunk {
	return &Chunk{
		hash: CalculateRawHash(data),
		data: data,
	}
}

func (c *Chunk) Type() ObjectType { return TypeChunk }
func (c *Chunk) ID() types.Hash   { return c.hash }
func (c *Chunk) Bytes() []byte    { return c.data }
func (c *Chunk) Size() int64      { return int64(len(c.data)) }
