package core

import "mergevault/pkg/types"

// ObjectType 定义了 MergeVault 中的对象类型
type ObjectType string

const (
	TypeChunk  ObjectType = "chunk"  // 原始数据片段 (大值切分的产物)
	TypeSpan   ObjectType = "span"   // 大值索引：按顺序引用一组 Chunk
	TypeBlob   ObjectType = "blob"   // 内容叶子：带内容类型标签的值
	TypeTree   ObjectType = "tree"   // 路径树的内部节点
	TypeCommit ObjectType = "commit" // 版本快照
)

// Object 是所有 Merkle DAG 节点的通用接口
type Object interface {
	// Type 返回对象类型
	Type() ObjectType

	// ID 返回对象的哈希值 (CID)
	// 注意：在对象被密封(构造函数计算 Hash)之前，这可能为空
	ID() types.Hash

	// Bytes 返回对象的序列化数据 (用于存储)
	Bytes() []byte
}
