package core

import (
	"fmt"
	"sort"

	"mergevault/pkg/types"
)

type EntryType string

const (
	EntryLeaf EntryType = "leaf" // 指向 Blob (内容值)
	EntryDir  EntryType = "dir"  // 指向子 Tree
)

// TreeEntry 是树节点里的一条边
type TreeEntry struct {
	Name string    `cbor:"n"`
	Type EntryType `cbor:"t"`
	Cid  Link      `cbor:"h"`
}

// Tree 是路径树的内部节点
// 不变量：Entries 严格按 Name 升序，且 Name 不重复。
// 构造函数负责排序，所以“同样的逻辑内容 -> 同样的 Hash”始终成立，
// 不同编辑顺序得到的语义相同的树可以直接按 Hash 判等。
type Tree struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType  `cbor:"t"`
	Entries []TreeEntry `cbor:"e"`
}

// NewTree 创建一个新的树节点 (会复制并排序 entries)
func NewTree(entries []TreeEntry) (*Tree, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return nil, fmt.Errorf("duplicate entry name in tree: %q", sorted[i].Name)
		}
	}

	t := &Tree{
		TypeVal: TypeTree,
		Entries: sorted,
	}
	h, b, err := CalculateHash(t)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.rawBytes = b
	return t, nil
}

// Find 二分查找指定名字的 entry
func (t *Tree) Find(name string) (TreeEntry, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Name >= name })
	if i < len(t.Entries) && t.Entries[i].Name == name {
		return t.Entries[i], true
	}
	return TreeEntry{}, false
}

// With 返回一棵替换/插入了某条 entry 的新树 (原树不动，结构共享)
func (t *Tree) With(entry TreeEntry) (*Tree, error) {
	entries := make([]TreeEntry, 0, len(t.Entries)+1)
	replaced := false
	for _, e := range t.Entries {
		if e.Name == entry.Name {
			entries = append(entries, entry)
			replaced = true
		} else {
			entries = append(entries, e)
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return NewTree(entries)
}

// Without 返回一棵删掉了某条 entry 的新树
func (t *Tree) Without(name string) (*Tree, error) {
	entries := make([]TreeEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.Name != name {
			entries = append(entries, e)
		}
	}
	return NewTree(entries)
}

func (t *Tree) IsEmpty() bool { return len(t.Entries) == 0 }

func (t *Tree) Type() ObjectType { return TypeTree }
func (t *Tree) ID() types.Hash   { return t.hash }
func (t *Tree) Bytes() []byte    { return t.rawBytes }

// DecodeTree 从存储字节还原 Tree (重新计算 Hash 以便后续引用)
func DecodeTree(data []byte) (*Tree, error) {
	var t Tree
	if err := DecodeObject(data, &t); err != nil {
		return nil, err
	}
	if t.TypeVal != TypeTree {
		return nil, fmt.Errorf("object is not a tree, got: %s", t.TypeVal)
	}
	t.hash = CalculateRawHash(data)
	t.rawBytes = data
	return &t, nil
}
