package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRawDocument(t *testing.T) {
	doc := NewRawDocument("gmail", "src-1", "report.pdf", []byte("hello"), "application/pdf", "msg/1/report.pdf")

	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", doc.Checksum)
	assert.Equal(t, int64(5), doc.Size)
	assert.Equal(t, LanguageUnknown, doc.Language)
	assert.Equal(t, "src-1", doc.SourceID)
	assert.NotNil(t, doc.Metadata)
	assert.Equal(t, NewDocumentID("gmail", "report.pdf", doc.Checksum), doc.ID)
}

func TestNewDocumentID(t *testing.T) {
	t.Run("deterministic for identical content", func(t *testing.T) {
		a := NewRawDocument("dropbox", "src-1", "a.txt", []byte("same"), "", "/a.txt")
		b := NewRawDocument("dropbox", "src-2", "a.txt", []byte("same"), "", "/other/a.txt")
		assert.Equal(t, a.ID, b.ID)
	})

	t.Run("differs by source", func(t *testing.T) {
		a := NewDocumentID("gmail", "a.txt", "abc")
		b := NewDocumentID("dropbox", "a.txt", "abc")
		assert.NotEqual(t, a, b)
	})

	t.Run("differs by content", func(t *testing.T) {
		a := NewRawDocument("gmail", "s", "a.txt", []byte("one"), "", "")
		b := NewRawDocument("gmail", "s", "a.txt", []byte("two"), "", "")
		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, a.Checksum, b.Checksum)
	})
}
