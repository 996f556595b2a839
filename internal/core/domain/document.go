package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// documentNamespace scopes document identities produced by NewDocumentID.
var documentNamespace = uuid.MustParse("6f1f4c1e-2b7a-5d8e-9c3b-4a5e6d7f8091")

// Language is the detected language of a document.
type Language string

const (
	LanguageEnglish   Language = "eng"
	LanguageMalayalam Language = "mal"
	LanguageMixed     Language = "mixed"
	LanguageUnknown   Language = "unknown"
)

// RawDocument is a candidate document produced by a connector.
// It is the connector's output before classification and extraction.
type RawDocument struct {
	// ID is derived from (Source, Filename, Checksum).
	ID string

	// Source is the connector type that produced the document (e.g. "gmail").
	Source string

	// SourceID links to the configured Source.
	SourceID string

	// Filename is the logical file name, including extension.
	Filename string

	// Content is the raw bytes.
	Content []byte

	// ContentType is the upstream-reported MIME type. May be empty.
	ContentType string

	// Metadata contains connector-specific key-value pairs.
	Metadata map[string]any

	// UploadedAt is when the upstream system last modified the document.
	UploadedAt time.Time

	// Language of the content. Defaults to LanguageUnknown.
	Language Language

	// Size is len(Content).
	Size int64

	// Checksum is the lowercase hex MD5 of Content, computed once.
	Checksum string

	// OriginalPath is the location in the upstream system.
	OriginalPath string
}

// NewRawDocument builds a candidate document, computing its checksum and
// deterministic identity from the content.
func NewRawDocument(source, sourceID, filename string, content []byte, contentType, originalPath string) RawDocument {
	checksum := Checksum(content)
	return RawDocument{
		ID:           NewDocumentID(source, filename, checksum),
		Source:       source,
		SourceID:     sourceID,
		Filename:     filename,
		Content:      content,
		ContentType:  contentType,
		Metadata:     make(map[string]any),
		UploadedAt:   time.Now(),
		Language:     LanguageUnknown,
		Size:         int64(len(content)),
		Checksum:     checksum,
		OriginalPath: originalPath,
	}
}

// Checksum returns the lowercase hex MD5 digest of content.
func Checksum(content []byte) string {
	sum := md5.Sum(content) //nolint:gosec // content fingerprint, not a security boundary
	return hex.EncodeToString(sum[:])
}

// NewDocumentID derives a stable document identity.
// The same (source, filename, checksum) triple always yields the same ID.
func NewDocumentID(source, filename, checksum string) string {
	return uuid.NewSHA1(documentNamespace, []byte(source+"|"+filename+"|"+checksum)).String()
}
