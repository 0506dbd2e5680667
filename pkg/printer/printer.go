// Package printer 把存储里的原始对象渲染成人类可读的形式 (mvt cat)
package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"mergevault/pkg/core"
)

// PrintStructure 解析并打印结构化对象 (Commit/Tree/Blob/Span)
// 如果是原始数据 (Chunk)，返回 false，由调用者决定如何展示
func PrintStructure(data []byte, w io.Writer) (bool, error) {
	// 1. 尝试探测类型
	var header struct {
		TypeVal core.ObjectType `cbor:"t"`
	}

	// 如果连基本的 CBOR 头都解不出来，说明是 Raw Data
	if err := core.DecodeObject(data, &header); err != nil {
		return false, nil
	}

	// 2. 分发打印
	switch header.TypeVal {
	case core.TypeCommit:
		return true, printCommit(data, w)
	case core.TypeTree:
		return true, printTree(data, w)
	case core.TypeBlob:
		return true, printBlob(data, w)
	case core.TypeSpan:
		return true, printSpan(data, w)
	default:
		// 未知类型，或者可能是巧合的二进制数据
		return false, nil
	}
}

func printCommit(data []byte, w io.Writer) error {
	c, err := core.DecodeCommit(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:    Commit\n")
	fmt.Fprintf(w, "Hash:    %s\n", c.ID())
	fmt.Fprintf(w, "Author:  %s\n", c.Author)
	fmt.Fprintf(w, "Time:    %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC3339))
	fmt.Fprintf(w, "Tree:    %s\n", c.TreeCid.Hash)
	for _, p := range c.Parents {
		fmt.Fprintf(w, "Parent:  %s\n", p.Hash)
	}
	fmt.Fprintf(w, "\n%s\n", c.Message)
	return nil
}

func printTree(data []byte, w io.Writer) error {
	t, err := core.DecodeTree(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type: Tree\n\n")
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "TYPE\tHASH\tNAME\n")
	for _, entry := range t.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Type, entry.Cid.Hash[:8], entry.Name)
	}
	return tw.Flush()
}

func printBlob(data []byte, w io.Writer) error {
	b, err := core.DecodeBlob(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:        Blob\n")
	fmt.Fprintf(w, "ContentType: %s\n", b.ContentType)
	fmt.Fprintf(w, "Size:        %s\n", fmtSize(b.Size))
	if b.Inline() {
		fmt.Fprintf(w, "Storage:     inline\n")
	} else {
		fmt.Fprintf(w, "Storage:     span %s\n", b.SpanCid.Hash)
	}
	return nil
}

func printSpan(data []byte, w io.Writer) error {
	s, err := core.DecodeSpan(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:      Span\n")
	fmt.Fprintf(w, "TotalSize: %s\n", fmtSize(s.TotalSize))
	fmt.Fprintf(w, "Chunks:    %d\n", len(s.Chunks))
	return nil
}

func fmtSize(s int64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	}
	return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
}
