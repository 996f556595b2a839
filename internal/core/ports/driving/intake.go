package driving

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// IntakeService runs files through the classification pipeline.
type IntakeService interface {
	// Process runs the full pipeline for one file.
	// Rejections and per-document failures are reported in the result;
	// the error is reserved for invalid requests and cancellation.
	Process(ctx context.Context, req domain.IntakeRequest) (*domain.ProcessingResult, error)

	// Assess runs detection and the quality gate without extraction.
	Assess(ctx context.Context, path string) (*domain.DetectionResult, *domain.QualityAssessment, error)
}
