package chunker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 固定种子生成伪随机数据，保证测试可复现
func randomData(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	r := rand.New(rand.NewSource(42))
	_, err := r.Read(data)
	require.NoError(t, err)
	return data
}

func TestChunker_Deterministic(t *testing.T) {
	data := randomData(t, 256*1024)
	c := NewChunker()

	cuts1 := c.Cut(data)
	cuts2 := NewChunker().Cut(data)

	// 同样的数据必须切出完全相同的切点，否则去重全部失效
	assert.Equal(t, cuts1, cuts2)
	assert.NotEmpty(t, cuts1)
}

func TestChunker_SizeBounds(t *testing.T) {
	data := randomData(t, 512 * 1024)
	cuts := NewChunker().Cut(data)

	prev := 0
	for _, cut := range cuts {
		size := cut - prev
		assert.GreaterOrEqual(t, size, MinSize)
		assert.LessOrEqual(t, size, MaxSize)
		prev = cut
	}
}

func TestChunker_SmallInputNoCut(t *testing.T) {
	// 不足最小块的数据不产生切点，由调用方收尾
	data := randomData(t, MinSize)
	cuts := NewChunker().Cut(data)
	assert.Empty(t, cuts)
}

func TestChunker_ShiftResync(t *testing.T) {
	// 内容定义切分的核心价值：头部插入数据后，
	// 切点应该在若干块之后重新对齐 (而定长切分会全部错位)
	data := randomData(t, 256*1024)
	c := NewChunker()

	cutsA := c.Cut(data)
	shifted := append([]byte{0xFF, 0xEE, 0xDD}, data...)
	cutsB := c.Cut(shifted)

	require.NotEmpty(t, cutsA)
	require.NotEmpty(t, cutsB)

	// 对齐判定：B 的某个切点减去偏移量 3 之后落回 A 的切点集合
	setA := make(map[int]bool, len(cutsA))
	for _, cut := range cutsA {
		setA[cut] = true
	}
	resynced := false
	for _, cut := range cutsB {
		if setA[cut-3] {
			resynced = true
			break
		}
	}
	assert.True(t, resynced, "插入前缀后切点应重新对齐")
}
