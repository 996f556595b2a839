package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Detector classifies a file into a FileType.
// Detection never fails: unreadable input yields domain.UnknownDetection.
type Detector interface {
	Detect(ctx context.Context, path string) domain.DetectionResult
	DetectReader(ctx context.Context, filename string, r io.Reader) domain.DetectionResult
}

// Assessor runs the quality gate for a detected file.
type Assessor interface {
	Assess(ctx context.Context, path string, detection domain.DetectionResult) (*domain.QualityAssessment, error)
}

// Enhancer improves a low-quality image and returns the path of the
// enhanced copy. The original file is left untouched.
type Enhancer interface {
	Enhance(ctx context.Context, path string) (string, error)
}

// ExtractOptions are passed through to extractors.
type ExtractOptions struct {
	Language domain.Language
	MIMEType string
}

// Extractor is the capability interface of a format extractor.
type Extractor interface {
	// Name identifies the extractor in logs and metadata.
	Name() string

	// CanProcess reports whether the extractor handles the file type.
	CanProcess(fileType domain.FileType) bool

	// Process extracts text and metadata from the file.
	Process(ctx context.Context, path string, fileType domain.FileType, opts ExtractOptions) (*domain.ExtractionResult, error)
}

// ExtractorSet picks the extractor for a detected file.
type ExtractorSet interface {
	// For returns nil when no extractor applies.
	For(fileType domain.FileType, mime string) Extractor
}

// OCREngine recognises text in an image file.
type OCREngine interface {
	// Recognise returns the text and a mean confidence in [0,1].
	Recognise(ctx context.Context, path string, language domain.Language) (text string, confidence float64, err error)
}

// ProgressReporter receives stage transition events.
// Implementations must not block the pipeline for long.
type ProgressReporter interface {
	Report(event domain.ProgressEvent)
}

// TextProcessor transforms extracted text into chunks.
// Processors are chained in a TextPipeline (e.g., normalise, chunk).
type TextProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the current chunks (nil for the first processor,
	// which sees the whole text) and returns the new chunks.
	Process(ctx context.Context, text string, chunks []domain.TextChunk) ([]domain.TextChunk, error)
}

// TextPipeline chains TextProcessors.
type TextPipeline interface {
	Process(ctx context.Context, text string) ([]domain.TextChunk, error)
}
