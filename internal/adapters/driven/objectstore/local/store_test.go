package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestStore_PutOpenDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := s.Put(ctx, "inbox/doc-1/invoice.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inbox", "doc-1", "invoice.pdf"), path)

	rc, err := s.Open(ctx, "inbox/doc-1/invoice.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, os.WriteFile(EnhancedPath(path), []byte("png"), 0600))
	require.NoError(t, s.Delete(ctx, "inbox/doc-1/invoice.pdf"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(EnhancedPath(path))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Delete(ctx, "inbox/doc-1/invoice.pdf"))
	_, err = s.Open(ctx, "inbox/doc-1/invoice.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RejectsEscapingKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../etc/passwd", "a/../../b"} {
		_, err := s.Put(context.Background(), key, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput, key)
	}
}

func TestEnhancedPath(t *testing.T) {
	assert.Equal(t, "/tmp/scan.enhanced.png", EnhancedPath("/tmp/scan.jpg"))
	assert.Equal(t, "/tmp/scan.enhanced.png", EnhancedPath("/tmp/scan"))
}
