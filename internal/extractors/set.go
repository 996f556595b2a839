package extractors

import (
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.ExtractorSet = (*Set)(nil)

// MIMEFilter is implemented by extractors that only handle some MIME types
// within a file type (e.g. HTML within TEXT).
type MIMEFilter interface {
	AcceptsMIME(mime string) bool
}

// Set is an ordered, immutable list of extractors. The first extractor
// that accepts a file wins.
type Set struct {
	extractors []driven.Extractor
}

// NewSet builds a set. Nil entries are skipped.
func NewSet(extractors ...driven.Extractor) *Set {
	list := make([]driven.Extractor, 0, len(extractors))
	for _, e := range extractors {
		if e != nil {
			list = append(list, e)
		}
	}
	return &Set{extractors: list}
}

// For returns the extractor for a file, or nil when none applies.
func (s *Set) For(fileType domain.FileType, mime string) driven.Extractor {
	for _, e := range s.extractors {
		if !e.CanProcess(fileType) {
			continue
		}
		if f, ok := e.(MIMEFilter); ok && !f.AcceptsMIME(mime) {
			continue
		}
		return e
	}
	return nil
}

// Names lists the extractors in dispatch order.
func (s *Set) Names() []string {
	names := make([]string, len(s.extractors))
	for i, e := range s.extractors {
		names[i] = e.Name()
	}
	return names
}

// Len returns the number of extractors.
func (s *Set) Len() int {
	return len(s.extractors)
}
