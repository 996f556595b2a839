// Package whitespace normalises extracted text before chunking.
package whitespace

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var (
	spaces   = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	newlines = regexp.MustCompile(`\n{3,}`)
)

// Processor collapses runs of spaces, trims lines and limits blank lines
// to one. It emits a single chunk holding the whole normalised text, or
// normalises each incoming chunk.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "whitespace" }

func (p *Processor) Process(_ context.Context, text string, chunks []domain.TextChunk) ([]domain.TextChunk, error) {
	if chunks == nil {
		clean := Normalise(text)
		if clean == "" {
			return nil, nil
		}
		return []domain.TextChunk{{Index: 0, Content: clean}}, nil
	}
	out := make([]domain.TextChunk, 0, len(chunks))
	for _, c := range chunks {
		c.Content = Normalise(c.Content)
		if c.Content != "" {
			c.Index = len(out)
			out = append(out, c)
		}
	}
	return out, nil
}

// Normalise applies the whitespace rules to s.
func Normalise(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(newlines.ReplaceAllString(s, "\n\n"))
}
