package meta

import (
	"time"

	"gorm.io/datatypes"
)

// Ref 存储分支指针 (例如 "refs/heads/main")
// 这是整个系统里唯一的可变共享状态，所有并发控制都集中在这一张表上。
type Ref struct {
	// Name 是主键，例如 "main" 或 "alice"
	Name string `gorm:"primaryKey;type:varchar(255)"`

	// CommitHash 指向当前的 Commit ID
	CommitHash string `gorm:"type:char(64);not null"`

	// Version 用于乐观锁并发控制 (CAS)
	// 每次更新时 +1，防止并发覆盖
	Version int64 `gorm:"default:1"`

	UpdatedAt time.Time
}

// CommitModel 是 core.Commit 在关系型数据库中的投影 (索引)
// 用于快速查询历史 (mvt log)，支持按作者、时间搜索。
// Merkle 对象本身永远以 Object Store 为准，这张表丢了可以重建。
type CommitModel struct {
	// Hash 是主键 (Merkle Root)
	Hash string `gorm:"primaryKey;type:char(64)"`

	// 基础元数据 (B-Tree 索引，适合排序和精确查找)
	Author    string `gorm:"index;type:varchar(100)"`
	Message   string `gorm:"type:text"`
	Timestamp int64  `gorm:"index"`

	// 树结构指针
	TreeHash string `gorm:"type:char(64);not null"`

	// Parents: JSON 数组 ["hash1", "hash2"]，merge 提交有两个元素
	Parents datatypes.JSON

	// Meta: 应用自定义元数据，不参与 merge 语义
	Meta datatypes.JSON `gorm:"index:idx_commit_meta"`

	CreatedAt time.Time
}

// TableName 强制指定表名
func (CommitModel) TableName() string {
	return "commits"
}
