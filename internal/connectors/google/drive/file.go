package drive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-intake/internal/connectors/google"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	mimeTypeGoogleApps   = "application/vnd.google-apps."
)

// ExportMimePDF is the export format for Google Workspace files.
const ExportMimePDF = "application/pdf"

// listFields are the file fields requested from Files.List.
const listFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime, parents, webViewLink, trashed)"

// BuildQuery builds the Files.List query for files modified after since.
// inclusive selects >= instead of >.
func BuildQuery(cfg *Config, since time.Time, inclusive bool) string {
	clauses := []string{"trashed = false", fmt.Sprintf("mimeType != '%s'", MimeTypeFolder)}
	if !since.IsZero() {
		op := ">"
		if inclusive {
			op = ">="
		}
		clauses = append(clauses, fmt.Sprintf("modifiedTime %s '%s'", op, since.UTC().Format(time.RFC3339)))
	}
	if len(cfg.FolderIDs) > 0 {
		parents := make([]string, len(cfg.FolderIDs))
		for i, id := range cfg.FolderIDs {
			parents[i] = fmt.Sprintf("'%s' in parents", escapeQuery(id))
		}
		clauses = append(clauses, "("+strings.Join(parents, " or ")+")")
	}
	return strings.Join(clauses, " and ")
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// ShouldSyncFile checks if a file should be synced based on config.
func ShouldSyncFile(file *drive.File, cfg *Config) bool {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return false
	}
	if len(cfg.MimeTypeFilter) > 0 {
		found := false
		for _, filter := range cfg.MimeTypeFilter {
			if file.MimeType == filter {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	switch file.MimeType {
	case MimeTypeGoogleDoc:
		return cfg.HasContentType(ContentDocs)
	case MimeTypeGoogleSheet:
		return cfg.HasContentType(ContentSheets)
	case MimeTypeGoogleSlides:
		return cfg.HasContentType(ContentSlides)
	}
	if strings.HasPrefix(file.MimeType, mimeTypeGoogleApps) {
		// Forms, drawings, shortcuts: nothing to export.
		return false
	}
	if cfg.MaxFileSize > 0 && file.Size > cfg.MaxFileSize {
		return false
	}
	return cfg.HasContentType(ContentFiles)
}

// IsExported reports whether the file is a Google Workspace file that has
// to be exported rather than downloaded.
func IsExported(file *drive.File) bool {
	return strings.HasPrefix(file.MimeType, mimeTypeGoogleApps)
}

// DocumentFilename is the file name used for the candidate document.
// Exported files get a .pdf extension.
func DocumentFilename(file *drive.File) string {
	name := strings.ReplaceAll(file.Name, "/", "_")
	if IsExported(file) && !strings.EqualFold(path.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// FetchContent downloads a file, or exports it to PDF when it is a
// Google Workspace file. Reads at most limit bytes.
func FetchContent(ctx context.Context, svc *drive.Service, file *drive.File, limit int64) ([]byte, string, error) {
	var (
		body     io.ReadCloser
		mimeType = file.MimeType
	)
	if IsExported(file) {
		resp, err := svc.Files.Export(file.Id, ExportMimePDF).Context(ctx).Download()
		if err != nil {
			return nil, "", google.WrapError(err, "export "+file.Id)
		}
		body, mimeType = resp.Body, ExportMimePDF
	} else {
		resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
		if err != nil {
			return nil, "", google.WrapError(err, "download "+file.Id)
		}
		body = resp.Body
	}
	defer body.Close()

	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", file.Id, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, file.Name, limit)
	}
	return data, mimeType, nil
}

// FileToRawDocument converts downloaded Drive content into a candidate document.
func FileToRawDocument(sourceID string, file *drive.File, content []byte, mimeType string) domain.RawDocument {
	doc := domain.NewRawDocument(
		domain.ConnectorGoogleDrive,
		sourceID,
		DocumentFilename(file),
		content,
		mimeType,
		"gdrive://files/"+file.Id,
	)
	if t, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
		doc.UploadedAt = t
	}
	doc.Metadata["file_id"] = file.Id
	doc.Metadata["title"] = file.Name
	doc.Metadata["drive_mime_type"] = file.MimeType
	doc.Metadata["web_link"] = file.WebViewLink
	doc.Metadata["modified_time"] = file.ModifiedTime
	if len(file.Parents) > 0 {
		doc.Metadata["parent_id"] = file.Parents[0]
	}
	return doc
}
