// Package postprocessors normalises extracted text and cuts it into chunks
// for the downstream indexer.
package postprocessors

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-intake/internal/postprocessors/whitespace"
)

var _ driven.TextPipeline = (*Pipeline)(nil)

// builder makes one processor from the text settings.
type builder func(cfg domain.TextConfig) driven.TextProcessor

var builtin = map[string]builder{
	"whitespace": func(domain.TextConfig) driven.TextProcessor { return whitespace.New() },
	"chunker": func(cfg domain.TextConfig) driven.TextProcessor {
		return chunker.New(chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.ChunkOverlap))
	},
}

// Available lists the processor names text.processors accepts.
func Available() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// Pipeline runs processors in order, each one refining the chunks of the
// one before. The first sees only the raw text.
type Pipeline struct {
	stages []driven.TextProcessor
}

func New(stages ...driven.TextProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// FromConfig assembles the stages cfg names.
func FromConfig(cfg domain.TextConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := New()
	for _, name := range cfg.Stages() {
		build, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("%w: text processor %q (have %v)", domain.ErrUnsupportedType, name, Available())
		}
		p.stages = append(p.stages, build(cfg))
	}
	return p, nil
}

func (p *Pipeline) Process(ctx context.Context, text string) ([]domain.TextChunk, error) {
	var chunks []domain.TextChunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		if chunks, err = stage.Process(ctx, text, chunks); err != nil {
			return nil, fmt.Errorf("text processor %s: %w", stage.Name(), err)
		}
	}
	return chunks, nil
}

// Names lists the stages in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
