package html

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

func TestExtractor_AcceptsMIME(t *testing.T) {
	e := New()
	assert.True(t, e.AcceptsMIME("text/html"))
	assert.False(t, e.AcceptsMIME("text/plain"))
	assert.True(t, e.CanProcess(domain.FileTypeText))
	assert.False(t, e.CanProcess(domain.FileTypeEmail))
}

func TestExtractor_Process(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	page := `<html><head><title>Site Survey</title></head>
<body><h1>Findings</h1><p>The <strong>boiler</strong> needs service.</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(page), 0o600))

	res, err := New().Process(context.Background(), path, domain.FileTypeText, driven.ExtractOptions{MIMEType: "text/html"})
	require.NoError(t, err)
	assert.Equal(t, "Site Survey", res.Metadata["title"])
	assert.Contains(t, res.Text, "# Findings")
	assert.Contains(t, res.Text, "**boiler**")
	assert.NotContains(t, res.Text, "<p>")
}

func TestExtractor_TitleFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>x</p>"), 0o600))

	res, err := New().Process(context.Background(), path, domain.FileTypeText, driven.ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "report", res.Metadata["title"])
}
