// Package html converts HTML files to markdown text.
package html

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

var titleTag = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Extractor handles HTML within the TEXT file type.
type Extractor struct {
	conv *converter.Converter
}

// New creates an HTML extractor.
func New() *Extractor {
	return &Extractor{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "html"
}

// CanProcess reports whether the file type is TEXT.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	return fileType == domain.FileTypeText
}

// AcceptsMIME limits the extractor to HTML content.
func (e *Extractor) AcceptsMIME(mime string) bool {
	return mime == "text/html" || mime == "application/xhtml+xml"
}

// Process converts the page to markdown.
func (e *Extractor) Process(ctx context.Context, path string, _ domain.FileType, _ driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	page := string(raw)

	md, err := e.conv.ConvertString(page)
	if err != nil {
		return nil, fmt.Errorf("%w: html to markdown: %v", domain.ErrExtraction, err)
	}

	title := ""
	if m := titleTag.FindStringSubmatch(page); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		name := filepath.Base(path)
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return &domain.ExtractionResult{
		Text: strings.TrimSpace(md),
		Metadata: map[string]any{
			"format": "html",
			"title":  title,
		},
	}, nil
}
