// Package text extracts plain text, markdown and csv files.
package text

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles TEXT files.
type Extractor struct{}

// New creates a text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "text"
}

// CanProcess reports whether the file type is TEXT.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	return fileType == domain.FileTypeText
}

// Process reads the file and simplifies markdown formatting.
func (e *Extractor) Process(ctx context.Context, path string, _ domain.FileType, opts driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	content := string(raw)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "\ufffd")
	}
	content = strings.TrimPrefix(content, "\ufeff")

	format := "plain"
	title := ""
	switch {
	case isMarkdown(path, opts.MIMEType):
		format = "markdown"
		title = markdownTitle(content)
		content = StripMarkdown(content)
	case strings.EqualFold(filepath.Ext(path), ".csv") || opts.MIMEType == "text/csv":
		format = "csv"
	}
	if title == "" {
		title = TitleFromPath(path)
	}

	return &domain.ExtractionResult{
		Text: content,
		Metadata: map[string]any{
			"format": format,
			"title":  title,
			"lines":  strings.Count(content, "\n") + 1,
		},
	}, nil
}

func isMarkdown(path, mime string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return mime == "text/markdown" || mime == "text/x-markdown"
}

// markdownTitle returns the first H1 heading, if any.
func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// TitleFromPath derives a human-readable title from a file name.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

var (
	codeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*)`)
	blockquote   = regexp.MustCompile(`(?m)^>[ \t]*`)
	hr           = regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`)
	listMarkers  = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedList = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	newlines     = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes common markdown formatting. Inline code keeps its
// text since ticket bodies often quote part numbers that way. Markers are
// matched within a line so paragraph breaks survive.
func StripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = hr.ReplaceAllString(content, "")
	content = blockquote.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "")
	content = newlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
