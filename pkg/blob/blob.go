// Package blob 负责内容值的落盘形态：
// 小值内联进 Blob 对象，大值经 chunker 切分后通过 Span 索引组装。
// 上层 (vault / merge 引擎) 只看到“写入字节得到 Hash，按 Hash 读回字节”。
package blob

import (
	"context"
	"fmt"
	"io"

	"mergevault/pkg/chunker"
	"mergevault/pkg/core"
	"mergevault/pkg/storage"
	"mergevault/pkg/types"
)

// InlineThreshold 以内的值直接内联，超过才走切分路径
const InlineThreshold = 64 * 1024

type Service struct {
	store   storage.Store
	chunker *chunker.Chunker
}

func NewService(store storage.Store) *Service {
	return &Service{
		store:   store,
		chunker: chunker.NewChunker(),
	}
}

// Write 持久化一段编码后的内容值，返回 Blob 的 Hash
// contentType 是内容类型注册名，会记录在 Blob 里供 merge 引擎使用
func (s *Service) Write(ctx context.Context, contentType string, data []byte) (types.Hash, error) {
	if len(data) <= InlineThreshold {
		b, err := core.NewInlineBlob(contentType, data)
		if err != nil {
			return "", err
		}
		if err := s.store.Put(ctx, b); err != nil {
			return "", fmt.Errorf("failed to store blob: %w", err)
		}
		return b.ID(), nil
	}

	// 大值路径：切分 -> 存 Chunk -> 建 Span -> Blob 指向 Span
	cutPoints := s.chunker.Cut(data)

	var links []core.ChunkLink
	start := 0
	appendChunk := func(end int) error {
		chunkObj := core.NewChunk(data[start:end])
		if err := s.store.Put(ctx, chunkObj); err != nil {
			return fmt.Errorf("failed to store chunk: %w", err)
		}
		links = append(links, core.ChunkLink{
			Cid:  core.NewLink(chunkObj.ID()),
			Size: chunkObj.Size(),
		})
		start = end
		return nil
	}

	for _, end := range cutPoints {
		if err := appendChunk(end); err != nil {
			return "", err
		}
	}
	// Cut 不包含尾部，这里收尾
	if start < len(data) {
		if err := appendChunk(len(data)); err != nil {
			return "", err
		}
	}

	span, err := core.NewSpan(int64(len(data)), links)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, span); err != nil {
		return "", fmt.Errorf("failed to store span: %w", err)
	}

	b, err := core.NewSpanBlob(contentType, span.ID(), int64(len(data)))
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, b); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}
	return b.ID(), nil
}

// Load 按 Hash 读回 Blob 元数据和完整内容字节
func (s *Service) Load(ctx context.Context, hash types.Hash) (*core.Blob, []byte, error) {
	raw, err := storage.GetBytes(ctx, s.store, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get blob %s: %w", hash, err)
	}

	b, err := core.DecodeBlob(raw)
	if err != nil {
		return nil, nil, err
	}

	if b.Inline() {
		return b, b.Data, nil
	}

	data, err := s.assemble(ctx, b.SpanCid.Hash)
	if err != nil {
		return nil, nil, err
	}
	return b, data, nil
}

// assemble 按顺序拼回 Span 引用的所有 Chunk
func (s *Service) assemble(ctx context.Context, spanHash types.Hash) ([]byte, error) {
	raw, err := storage.GetBytes(ctx, s.store, spanHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get span meta: %w", err)
	}

	span, err := core.DecodeSpan(raw)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, span.TotalSize)
	for i, link := range span.Chunks {
		// 每个 Chunk 在独立 scope 里读取，句柄及时关闭
		err := func() error {
			reader, err := s.store.Get(ctx, link.Cid.Hash)
			if err != nil {
				return fmt.Errorf("failed to get chunk %d: %w", i, err)
			}
			defer reader.Close()

			chunkData, err := io.ReadAll(reader)
			if err != nil {
				return fmt.Errorf("failed to read chunk %d: %w", i, err)
			}
			data = append(data, chunkData...)
			return nil
		}()
		if err != nil {
			return nil, err
		}
	}

	if int64(len(data)) != span.TotalSize {
		return nil, fmt.Errorf("span %s reassembled to %d bytes, want %d", spanHash, len(data), span.TotalSize)
	}
	return data, nil
}
