package dropbox

import (
	"path"
	"strings"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// ShouldSyncFile checks if a file should be synced based on config.
// since filters out files not modified after it; zero keeps everything.
func ShouldSyncFile(file *files.FileMetadata, cfg *Config, since time.Time, inclusive bool) bool {
	if file == nil || !file.IsDownloadable {
		return false
	}
	if cfg.MaxFileSize > 0 && file.Size > cfg.MaxFileSize {
		return false
	}
	if len(cfg.Extensions) > 0 {
		ext := strings.ToLower(path.Ext(file.Name))
		found := false
		for _, want := range cfg.Extensions {
			if ext == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if since.IsZero() {
		return true
	}
	if inclusive {
		return !file.ServerModified.Before(since)
	}
	return file.ServerModified.After(since)
}

// FileToRawDocument converts downloaded Dropbox content into a candidate document.
// The content type is sniffed because Dropbox does not report one.
func FileToRawDocument(sourceID string, file *files.FileMetadata, content []byte) domain.RawDocument {
	doc := domain.NewRawDocument(
		domain.ConnectorDropbox,
		sourceID,
		file.Name,
		content,
		mimetype.Detect(content).String(),
		"dropbox://"+strings.TrimPrefix(file.PathDisplay, "/"),
	)
	doc.UploadedAt = file.ServerModified
	doc.Metadata["file_id"] = file.Id
	doc.Metadata["path"] = file.PathDisplay
	doc.Metadata["rev"] = file.Rev
	doc.Metadata["content_hash"] = file.ContentHash
	doc.Metadata["modified_time"] = file.ServerModified.UTC().Format(time.RFC3339)
	return doc
}
