// Package office extracts text from PDF and office documents.
package office

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Extractor handles PDF, WORD, EXCEL and POWERPOINT files.
type Extractor struct {
	readability bool
}

// Option configures the extractor.
type Option func(*Extractor)

// WithReadability enables docconv's readability pass for HTML-like input.
func WithReadability(on bool) Option {
	return func(e *Extractor) { e.readability = on }
}

// New creates an office extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "office"
}

// CanProcess reports whether the file type is an office format.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	switch fileType {
	case domain.FileTypePDF, domain.FileTypeWord, domain.FileTypeExcel, domain.FileTypePowerPoint:
		return true
	}
	return false
}

// Process converts the document to text. A PDF without a text layer
// yields empty text with zero confidence so it is routed to review.
func (e *Extractor) Process(ctx context.Context, path string, fileType domain.FileType, opts driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mime := opts.MIMEType
	if mime == "" || mime == domain.GenericMIMEType {
		mime = docconv.MimeTypeByExtension(filepath.Base(path))
	}

	meta := map[string]any{"format": strings.ToLower(string(fileType))}
	var text string

	if mime == xlsxMIME || strings.EqualFold(filepath.Ext(path), ".xlsx") {
		sheets, err := readXLSX(path)
		if err != nil {
			return nil, fmt.Errorf("%w: xlsx: %v", domain.ErrExtraction, err)
		}
		text = strings.Join(sheets, "\n\n")
		meta["sheets"] = len(sheets)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
		}
		defer f.Close()

		res, err := docconv.Convert(f, mime, e.readability)
		if err != nil {
			return nil, fmt.Errorf("%w: docconv %s: %v", domain.ErrExtraction, mime, err)
		}
		text = res.Body
		for k, v := range res.Meta {
			meta[k] = v
		}
	}

	if fileType == domain.FileTypePDF {
		if pages, err := api.PageCountFile(path); err == nil {
			meta["pages"] = pages
		}
	}

	result := &domain.ExtractionResult{
		Text:     strings.TrimSpace(text),
		Metadata: meta,
	}
	if result.Text == "" && fileType == domain.FileTypePDF {
		zero := 0.0
		result.Confidence = &zero
		meta["text_layer"] = false
	}
	return result, nil
}
