package domain

// FileType is the internal classification of a document's format family.
type FileType string

const (
	FileTypePDF        FileType = "PDF"
	FileTypeWord       FileType = "WORD"
	FileTypeExcel      FileType = "EXCEL"
	FileTypePowerPoint FileType = "POWERPOINT"
	FileTypeImage      FileType = "IMAGE"
	FileTypeCAD        FileType = "CAD"
	FileTypeText       FileType = "TEXT"
	FileTypeEmail      FileType = "EMAIL"
	FileTypeUnknown    FileType = "UNKNOWN"
)

// GenericMIMEType is the fallback MIME type for unrecognised content.
const GenericMIMEType = "application/octet-stream"

// SupportedConfidence is the minimum confidence for a detection to be processed.
const SupportedConfidence = 0.3

// IsDocument reports whether the type is a text-bearing document format.
func (t FileType) IsDocument() bool {
	switch t {
	case FileTypePDF, FileTypeWord, FileTypeExcel, FileTypePowerPoint, FileTypeText, FileTypeEmail:
		return true
	}
	return false
}

// DetectionResult is the classifier's decision for one file.
type DetectionResult struct {
	FileType   FileType `json:"file_type"`
	MIMEType   string   `json:"mime_type"`
	Confidence float64  `json:"confidence"`
}

// UnknownDetection is returned for unreadable or corrupt input.
func UnknownDetection() DetectionResult {
	return DetectionResult{FileType: FileTypeUnknown, MIMEType: GenericMIMEType}
}

// IsSupported reports whether the detection is good enough to process.
func (d DetectionResult) IsSupported() bool {
	return d.FileType != FileTypeUnknown && d.Confidence > SupportedConfidence
}
