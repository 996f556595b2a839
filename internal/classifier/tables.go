package classifier

import (
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

type extEntry struct {
	fileType domain.FileType
	mime     string
}

var extensions = map[string]extEntry{
	".pdf":  {domain.FileTypePDF, "application/pdf"},
	".doc":  {domain.FileTypeWord, "application/msword"},
	".docx": {domain.FileTypeWord, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".odt":  {domain.FileTypeWord, "application/vnd.oasis.opendocument.text"},
	".rtf":  {domain.FileTypeWord, "application/rtf"},
	".xls":  {domain.FileTypeExcel, "application/vnd.ms-excel"},
	".xlsx": {domain.FileTypeExcel, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".ods":  {domain.FileTypeExcel, "application/vnd.oasis.opendocument.spreadsheet"},
	".ppt":  {domain.FileTypePowerPoint, "application/vnd.ms-powerpoint"},
	".pptx": {domain.FileTypePowerPoint, "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	".odp":  {domain.FileTypePowerPoint, "application/vnd.oasis.opendocument.presentation"},
	".eml":  {domain.FileTypeEmail, "message/rfc822"},
	".msg":  {domain.FileTypeEmail, "application/vnd.ms-outlook"},
	".dxf":  {domain.FileTypeCAD, "image/vnd.dxf"},
	".dwg":  {domain.FileTypeCAD, "image/vnd.dwg"},
	".jpg":  {domain.FileTypeImage, "image/jpeg"},
	".jpeg": {domain.FileTypeImage, "image/jpeg"},
	".png":  {domain.FileTypeImage, "image/png"},
	".gif":  {domain.FileTypeImage, "image/gif"},
	".bmp":  {domain.FileTypeImage, "image/bmp"},
	".tif":  {domain.FileTypeImage, "image/tiff"},
	".tiff": {domain.FileTypeImage, "image/tiff"},
	".webp": {domain.FileTypeImage, "image/webp"},
	".txt":  {domain.FileTypeText, "text/plain"},
	".log":  {domain.FileTypeText, "text/plain"},
	".md":   {domain.FileTypeText, "text/markdown"},
	".csv":  {domain.FileTypeText, "text/csv"},
	".json": {domain.FileTypeText, "application/json"},
	".xml":  {domain.FileTypeText, "application/xml"},
	".html": {domain.FileTypeText, "text/html"},
	".htm":  {domain.FileTypeText, "text/html"},
}

// exactMIME is consulted before prefixMIME. Ambiguous containers (zip,
// OLE2) map to nothing so the extension decides.
var exactMIME = map[string]domain.FileType{
	"application/pdf": domain.FileTypePDF,

	"application/msword": domain.FileTypeWord,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FileTypeWord,
	"application/vnd.oasis.opendocument.text":                                 domain.FileTypeWord,
	"application/rtf": domain.FileTypeWord,
	"text/rtf":        domain.FileTypeWord,

	"application/vnd.ms-excel": domain.FileTypeExcel,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": domain.FileTypeExcel,
	"application/vnd.oasis.opendocument.spreadsheet":                    domain.FileTypeExcel,

	"application/vnd.ms-powerpoint": domain.FileTypePowerPoint,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": domain.FileTypePowerPoint,
	"application/vnd.oasis.opendocument.presentation":                          domain.FileTypePowerPoint,

	"message/rfc822":             domain.FileTypeEmail,
	"application/vnd.ms-outlook": domain.FileTypeEmail,

	"image/vnd.dxf":    domain.FileTypeCAD,
	"image/x-dxf":      domain.FileTypeCAD,
	"application/dxf":  domain.FileTypeCAD,
	"image/vnd.dwg":    domain.FileTypeCAD,
	"application/acad": domain.FileTypeCAD,

	"application/json": domain.FileTypeText,
	"application/xml":  domain.FileTypeText,
}

var prefixMIME = []struct {
	prefix   string
	fileType domain.FileType
}{
	{"image/", domain.FileTypeImage},
	{"text/", domain.FileTypeText},
}

// priority is the fallback order for low-confidence decisions.
var priority = []domain.FileType{
	domain.FileTypePDF,
	domain.FileTypeWord,
	domain.FileTypeExcel,
	domain.FileTypePowerPoint,
	domain.FileTypeEmail,
	domain.FileTypeCAD,
	domain.FileTypeImage,
	domain.FileTypeText,
}

// TypeForMIME maps a MIME type (parameters ignored) to a FileType.
func TypeForMIME(mime string) domain.FileType {
	mime = baseMIME(mime)
	if t, ok := exactMIME[mime]; ok {
		return t
	}
	for _, p := range prefixMIME {
		if strings.HasPrefix(mime, p.prefix) {
			return p.fileType
		}
	}
	return domain.FileTypeUnknown
}

func baseMIME(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
