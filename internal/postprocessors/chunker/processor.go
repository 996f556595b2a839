// Package chunker cuts text into fixed-size overlapping windows.
package chunker

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Sizes are in runes, so multi-byte text is never cut mid-character.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type Processor struct {
	chunkSize int
	overlap   int
}

type Option func(*Processor)

// WithChunkSize ignores non-positive sizes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap ignores negative overlaps.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New applies opts over the defaults. An overlap that would stall the
// window is cut to a quarter of the chunk.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	return p
}

func (p *Processor) Name() string { return "chunker" }

// Process splits incoming chunks further, or text when there are none.
// Offsets are byte offsets into the content that was split.
func (p *Processor) Process(ctx context.Context, text string, chunks []domain.TextChunk) ([]domain.TextChunk, error) {
	if chunks == nil {
		chunks = []domain.TextChunk{{Content: text}}
	}
	var out []domain.TextChunk
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, piece := range p.split(c.Content) {
			piece.Index = len(out)
			piece.Offset += c.Offset
			out = append(out, piece)
		}
	}
	return out, nil
}

func (p *Processor) split(content string) []domain.TextChunk {
	if content == "" {
		return nil
	}

	// byteAt[i] is the byte offset of rune i; the last entry is len(content).
	byteAt := make([]int, 0, len(content)+1)
	for i := range content {
		byteAt = append(byteAt, i)
	}
	runes := len(byteAt)
	byteAt = append(byteAt, len(content))

	step := p.chunkSize - p.overlap
	pieces := make([]domain.TextChunk, 0, runes/step+1)
	for start := 0; start < runes; start += step {
		end := min(start+p.chunkSize, runes)
		pieces = append(pieces, domain.TextChunk{
			Content: content[byteAt[start]:byteAt[end]],
			Offset:  byteAt[start],
		})
		if end == runes {
			break
		}
	}
	return pieces
}
