package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePath(t *testing.T) {
	// 前后斜杠和多余斜杠都应被规整掉
	assert.Equal(t, Path{"a", "b"}, ParsePath("a/b"))
	assert.Equal(t, Path{"a", "b"}, ParsePath("/a/b/"))
	assert.Equal(t, Path{"single"}, ParsePath("single"))
	assert.True(t, ParsePath("").IsRoot())
	assert.True(t, ParsePath("/").IsRoot())
}

func TestPath_Child_CopyOnWrite(t *testing.T) {
	base := ParsePath("a/b")
	c1 := base.Child("c")
	c2 := base.Child("d")

	// Child 必须复制底层数组，两个派生路径不能互相踩
	assert.Equal(t, "a/b/c", c1.String())
	assert.Equal(t, "a/b/d", c2.String())
	assert.Equal(t, "a/b", base.String())
}

func TestPath_Compare(t *testing.T) {
	assert.Equal(t, 0, ParsePath("a/b").Compare(ParsePath("a/b")))
	assert.Equal(t, -1, ParsePath("a").Compare(ParsePath("a/b")), "前缀排在前面")
	assert.Equal(t, 1, ParsePath("a/c").Compare(ParsePath("a/b")))
	assert.Equal(t, -1, ParsePath("a/b").Compare(ParsePath("b")))
}
