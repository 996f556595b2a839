package dropbox

import (
	"testing"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// newTestFileMetadata creates a FileMetadata for testing with embedded Metadata fields.
func newTestFileMetadata(id, name, pathDisplay string, size uint64, serverMod time.Time) *files.FileMetadata {
	fm := &files.FileMetadata{
		Id:             id,
		Size:           size,
		ServerModified: serverMod,
		IsDownloadable: true,
	}
	fm.Name = name
	fm.PathDisplay = pathDisplay
	fm.PathLower = pathDisplay
	return fm
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(domain.Source{Config: map[string]string{
		"path":       "Plant/Scans/",
		"extensions": "PDF, .jpg",
		"recursive":  "false",
	}})
	require.NoError(t, err)
	assert.Equal(t, "/Plant/Scans", cfg.Path)
	assert.Equal(t, []string{".pdf", ".jpg"}, cfg.Extensions)
	assert.False(t, cfg.Recursive)

	cfg, err = ParseConfig(domain.Source{Config: map[string]string{"path": "/"}})
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Path)
	assert.True(t, cfg.Recursive)

	_, err = ParseConfig(domain.Source{Config: map[string]string{"max_file_size": "-1"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestShouldSyncFile(t *testing.T) {
	mod := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := &Config{Extensions: []string{".pdf"}, MaxFileSize: 100}

	tests := []struct {
		name      string
		file      *files.FileMetadata
		since     time.Time
		inclusive bool
		want      bool
	}{
		{"nil", nil, time.Time{}, false, false},
		{"match", newTestFileMetadata("id:1", "a.PDF", "/a.PDF", 10, mod), time.Time{}, false, true},
		{"wrong extension", newTestFileMetadata("id:1", "a.txt", "/a.txt", 10, mod), time.Time{}, false, false},
		{"too large", newTestFileMetadata("id:1", "a.pdf", "/a.pdf", 101, mod), time.Time{}, false, false},
		{"modified at since exclusive", newTestFileMetadata("id:1", "a.pdf", "/a.pdf", 10, mod), mod, false, false},
		{"modified at since inclusive", newTestFileMetadata("id:1", "a.pdf", "/a.pdf", 10, mod), mod, true, true},
		{"older", newTestFileMetadata("id:1", "a.pdf", "/a.pdf", 10, mod), mod.Add(time.Hour), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSyncFile(tt.file, cfg, tt.since, tt.inclusive))
		})
	}

	notDownloadable := newTestFileMetadata("id:2", "doc.paper", "/doc.paper", 1, mod)
	notDownloadable.IsDownloadable = false
	assert.False(t, ShouldSyncFile(notDownloadable, DefaultConfig(), time.Time{}, false))
}

func TestFileToRawDocument(t *testing.T) {
	mod := time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	file := newTestFileMetadata("id:abc", "report.pdf", "/Work/report.pdf", 13, mod)
	file.Rev = "rev123"
	file.ContentHash = "hash456"

	doc := FileToRawDocument("source-abc", file, []byte("%PDF-1.4\n%%EOF"))

	assert.Equal(t, "source-abc", doc.SourceID)
	assert.Equal(t, domain.ConnectorDropbox, doc.Source)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "dropbox://Work/report.pdf", doc.OriginalPath)
	assert.Equal(t, mod, doc.UploadedAt)
	assert.Equal(t, "id:abc", doc.Metadata["file_id"])
	assert.Equal(t, "rev123", doc.Metadata["rev"])
	assert.Equal(t, "2024-01-15T12:30:00Z", doc.Metadata["modified_time"])
}

func TestCursor(t *testing.T) {
	c := &Cursor{Version: CursorVersion, ListCursor: "AAE", Path: "/Plant"}
	decoded, err := DecodeCursor(c.Encode())
	require.NoError(t, err)
	assert.Equal(t, c, decoded)

	empty, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = DecodeCursor("!!")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
