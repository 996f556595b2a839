package text

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestExtractor_CanProcess(t *testing.T) {
	e := New()
	assert.True(t, e.CanProcess(domain.FileTypeText))
	assert.False(t, e.CanProcess(domain.FileTypePDF))
	assert.Equal(t, "text", e.Name())
}

func TestExtractor_Plain(t *testing.T) {
	path := writeFile(t, "pump_service-log.txt", "\ufeffline one\nline two")

	res, err := New().Process(context.Background(), path, domain.FileTypeText, driven.ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", res.Text)
	assert.Equal(t, "pump service log", res.Metadata["title"])
	assert.Equal(t, "plain", res.Metadata["format"])
	assert.Nil(t, res.Confidence)
}

func TestExtractor_Markdown(t *testing.T) {
	path := writeFile(t, "notes.md", "# Valve Report\n\nSee **part** `V-204` and [manual](http://x).\n\n- item\n")

	res, err := New().Process(context.Background(), path, domain.FileTypeText, driven.ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Valve Report", res.Metadata["title"])
	assert.Equal(t, "markdown", res.Metadata["format"])
	assert.Equal(t, "Valve Report\n\nSee part V-204 and manual.\n\nitem", res.Text)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph then bullet", "Intro.\n\n- one\n- two", "Intro.\n\none\ntwo"},
		{"star bullets", "Intro.\n\n* one\n* **two**", "Intro.\n\none\ntwo"},
		{"numbered list", "Steps:\n\n1. open\n2. close", "Steps:\n\nopen\nclose"},
		{"rule between paragraphs", "Above\n\n---\n\nBelow", "Above\n\nBelow"},
		{"quote after paragraph", "He said:\n\n> replace the valve", "He said:\n\nreplace the valve"},
		{"heading after paragraph", "Text\n\n## Next", "Text\n\nNext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdown(tt.in))
		})
	}
}

func TestExtractor_CSV(t *testing.T) {
	path := writeFile(t, "parts.csv", "a,b\n1,2")

	res, err := New().Process(context.Background(), path, domain.FileTypeText, driven.ExtractOptions{MIMEType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "csv", res.Metadata["format"])
	assert.Equal(t, 2, res.Metadata["lines"])
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := New().Process(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), domain.FileTypeText, driven.ExtractOptions{})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
