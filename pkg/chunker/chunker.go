package chunker

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// 大值切分配置 (单位: 字节)
// 平均块越小去重粒度越细，但元数据开销越大；这里取测试友好的值
const (
	MinSize   = 4 * 1024  // 4KB
	AvgSize   = 8 * 1024  // 8KB (生产环境建议设为 2MB-4MB)
	MaxSize   = 64 * 1024 // 64KB
	NormLevel = 2
)

// gearTable 是 Gear Hash 的查找表
// 必须在所有进程间保持一致，否则同样的数据会切出不同的块，
// 去重就失效了。所以这里用 SHA-256 从固定种子推导，而不是随机生成。
var gearTable [256]uint64

func init() {
	for i := 0; i < 256; i++ {
		sum := sha256.Sum256([]byte{'g', 'e', 'a', 'r', byte(i)})
		gearTable[i] = binary.BigEndian.Uint64(sum[:8])
	}
}

// Chunker 是一个无状态的切分工具
type Chunker struct {
	maskS uint64
	maskL uint64
}

func NewChunker() *Chunker {
	// 预计算掩码
	bits := int(math.Round(math.Log2(float64(AvgSize))))
	return &Chunker{
		maskS: uint64(1<<(bits+NormLevel)) - 1,
		maskL: uint64(1<<(bits-NormLevel)) - 1,
	}
}

// Cut 将数据切分成一系列的切点。
// 返回值:
//
//	[]int: 所有的 **完整块** 的结束 offset。不包含未处理完的尾部。
func (c *Chunker) Cut(data []byte) []int {
	var cutPoints []int
	offset := 0
	n := len(data)

	for offset < n {
		// 1. 剩余不足最小块，直接收尾
		if n-offset <= MinSize {
			return cutPoints
		}

		// 2. 初始化状态
		// 每次新块开始，fp 重置为 0
		fp := uint64(0)
		idx := offset + MinSize

		// 确定边界
		normLimit := min(offset+AvgSize, n)
		maxLimit := min(offset+MaxSize, n)

		// 定义扫描闭包 (DRY)
		scan := func(limit int, mask uint64) bool {
			for ; idx < limit; idx++ {
				fp = (fp << 1) + gearTable[data[idx]]
				if (fp & mask) == 0 {
					cutPoints = append(cutPoints, idx+1)
					offset = idx + 1
					return true
				}
			}
			return false
		}

		// A. 归一化区域 (严掩码)
		if scan(normLimit, c.maskS) {
			continue
		}

		// B. 普通区域 (宽掩码)
		if scan(maxLimit, c.maskL) {
			continue
		}

		// C. 强制切分
		cutPoints = append(cutPoints, maxLimit)
		offset = maxLimit
	}

	return cutPoints
}
