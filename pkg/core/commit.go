package core

import (
	"fmt"
	"time"

	"mergevault/pkg/types"
)

// Commit 是一次不可变的版本快照
// Parents 为空 = 根提交；1 个 = 普通提交；2 个及以上 = merge 提交
type Commit struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	TreeCid Link   `cbor:"th"`
	Parents []Link `cbor:"p"`

	Author  string `cbor:"a"`
	Message string `cbor:"m"`

	// Unix 时间戳，int64 明确类型
	Timestamp int64 `cbor:"ts"`
}

// Info 是提交的元数据，不参与 merge 语义
// Timestamp 为 0 时取当前时间
type Info struct {
	Author    string
	Message   string
	Timestamp int64
}

func NewCommit(treeHash types.Hash, parents []types.Hash, info Info) (*Commit, error) {
	parentLinks := make([]Link, len(parents))
	for i, p := range parents {
		parentLinks[i] = NewLink(p)
	}

	ts := info.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}

	c := &Commit{
		TypeVal:   TypeCommit,
		TreeCid:   NewLink(treeHash),
		Parents:   parentLinks,
		Author:    info.Author,
		Message:   info.Message,
		Timestamp: ts,
	}

	h, b, err := CalculateHash(c)
	if err != nil {
		return nil, err
	}
	c.hash = h
	c.rawBytes = b
	return c, nil
}

// ParentHashes 展开 Links
func (c *Commit) ParentHashes() []types.Hash {
	hashes := make([]types.Hash, len(c.Parents))
	for i, p := range c.Parents {
		hashes[i] = p.Hash
	}
	return hashes
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) ID() types.Hash   { return c.hash }
func (c *Commit) Bytes() []byte    { return c.rawBytes }

// DecodeCommit 从存储字节还原 Commit
func DecodeCommit(data []byte) (*Commit, error) {
	var c Commit
	if err := DecodeObject(data, &c); err != nil {
		return nil, err
	}
	if c.TypeVal != TypeCommit {
		return nil, fmt.Errorf("object is not a commit, got: %s", c.TypeVal)
	}
	c.hash = CalculateRawHash(data)
	c.rawBytes = data
	return &c, nil
}
