package extractors

import (
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/extractors/cad"
	"github.com/custodia-labs/sercha-intake/internal/extractors/email"
	"github.com/custodia-labs/sercha-intake/internal/extractors/html"
	imageext "github.com/custodia-labs/sercha-intake/internal/extractors/image"
	"github.com/custodia-labs/sercha-intake/internal/extractors/office"
	"github.com/custodia-labs/sercha-intake/internal/extractors/text"
)

// Default returns the built-in extractors. HTML precedes text so it
// claims text/html within the TEXT family.
func Default(ocr driven.OCREngine) *Set {
	return NewSet(
		office.New(),
		email.New(),
		html.New(),
		text.New(),
		imageext.New(ocr),
		cad.New(),
	)
}
