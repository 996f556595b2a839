package cad

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

func dxf(pairs ...string) string {
	return strings.Join(pairs, "\n") + "\n"
}

func TestExtractor_DXF(t *testing.T) {
	content := dxf(
		"0", "SECTION", "2", "HEADER", "0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "8", "WALLS", "10", "0.0",
		"0", "TEXT", "8", "LABELS", "1", "PUMP ROOM",
		"0", "MTEXT", "8", "NOTES", "3", `{\fArial;Fire exit\P}`, "1", "keep clear",
		"0", "ENDSEC",
		"0", "EOF",
	)
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	res, err := New().Process(context.Background(), path, domain.FileTypeCAD, driven.ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "PUMP ROOM\nFire exit\nkeep clear", res.Text)
	assert.Equal(t, 3, res.Metadata["entities"])
	assert.Equal(t, 2, res.Metadata["text_entities"])
	assert.Equal(t, []string{"LABELS", "NOTES", "WALLS"}, res.Metadata["layers"])
}

func TestExtractor_DWGUnsupported(t *testing.T) {
	_, err := New().Process(context.Background(), "plan.dwg", domain.FileTypeCAD, driven.ExtractOptions{})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractor_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dxf")
	require.NoError(t, os.WriteFile(path, []byte("0\nSECTION\n2\n"), 0o600))

	_, err := New().Process(context.Background(), path, domain.FileTypeCAD, driven.ExtractOptions{})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
