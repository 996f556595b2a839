// Package image extracts text from images through an OCR engine.
package image

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles IMAGE files.
type Extractor struct {
	ocr driven.OCREngine
}

// New creates an image extractor. A nil engine makes every image fail
// extraction, which the pipeline records per document.
func New(ocr driven.OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "image"
}

// CanProcess reports whether the file type is IMAGE.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	return fileType == domain.FileTypeImage
}

// Process runs OCR and reports the engine's confidence.
func (e *Extractor) Process(ctx context.Context, path string, _ domain.FileType, opts driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if e.ocr == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", domain.ErrExtraction)
	}
	text, confidence, err := e.ocr.Recognise(ctx, path, opts.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: ocr: %v", domain.ErrExtraction, err)
	}
	return &domain.ExtractionResult{
		Text: text,
		Metadata: map[string]any{
			"format":         "image",
			"ocr_confidence": confidence,
		},
		Confidence: &confidence,
	}, nil
}
