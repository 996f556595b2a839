package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure IntakeOrchestrator implements the interface.
var _ driving.IntakeService = (*IntakeOrchestrator)(nil)

// DefaultReviewThreshold flags results below this confidence for review.
const DefaultReviewThreshold = 0.7

// IntakeOrchestrator runs one file through detection, the quality gate,
// optional enhancement and extraction.
type IntakeOrchestrator struct {
	detector        driven.Detector
	assessor        driven.Assessor
	extractors      driven.ExtractorSet
	enhancer        driven.Enhancer
	pipeline        driven.TextPipeline
	reporter        driven.ProgressReporter
	reviewThreshold float64
	now             func() time.Time
}

// IntakeOption configures an IntakeOrchestrator.
type IntakeOption func(*IntakeOrchestrator)

// WithEnhancer enables the enhancement branch.
func WithEnhancer(e driven.Enhancer) IntakeOption {
	return func(o *IntakeOrchestrator) { o.enhancer = e }
}

// WithTextPipeline chunks extracted text.
func WithTextPipeline(p driven.TextPipeline) IntakeOption {
	return func(o *IntakeOrchestrator) { o.pipeline = p }
}

// WithProgressReporter receives stage transitions.
func WithProgressReporter(r driven.ProgressReporter) IntakeOption {
	return func(o *IntakeOrchestrator) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithReviewThreshold sets the human review confidence threshold.
func WithReviewThreshold(t float64) IntakeOption {
	return func(o *IntakeOrchestrator) { o.reviewThreshold = t }
}

// NewIntakeOrchestrator creates an orchestrator. The extractor set is
// fixed for the orchestrator's lifetime.
func NewIntakeOrchestrator(
	detector driven.Detector,
	assessor driven.Assessor,
	extractors driven.ExtractorSet,
	opts ...IntakeOption,
) *IntakeOrchestrator {
	o := &IntakeOrchestrator{
		detector:        detector,
		assessor:        assessor,
		extractors:      extractors,
		reporter:        NopReporter{},
		reviewThreshold: DefaultReviewThreshold,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs the full pipeline for one file.
//
//nolint:gocyclo // Stage machine with sequential steps
func (o *IntakeOrchestrator) Process(ctx context.Context, req domain.IntakeRequest) (*domain.ProcessingResult, error) {
	if req.FilePath == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.FileID == "" {
		req.FileID = filepath.Base(req.FilePath)
	}

	res := &domain.ProcessingResult{
		FileID:       req.FileID,
		OriginalPath: req.FilePath,
		Metadata:     make(map[string]any),
		StartedAt:    o.now(),
	}

	// 1. DETECT
	o.enter(res, domain.StageDetecting, nil, "")
	detection := o.detector.Detect(ctx, req.FilePath)
	res.Detection = &detection
	if !detection.IsSupported() {
		return o.fail(res, fmt.Errorf("%w: unsupported file type %s (confidence %.2f)",
			domain.ErrValidation, detection.FileType, detection.Confidence)), nil
	}

	// 2. ASSESS
	o.enter(res, domain.StageAssessing, nil, string(detection.FileType))
	assessment, err := o.assessor.Assess(ctx, req.FilePath, detection)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.fail(res, fmt.Errorf("assess: %w", err)), nil
	}
	res.Quality = assessment

	if assessment.Decision == domain.DecisionReject && !req.Options.ForceProcess {
		res.Errors = append(res.Errors, assessment.Issues...)
		res.Errors = append(res.Errors, assessment.Recommendations...)
		res.ConfidenceScore = assessment.OverallScore
		res.HumanReviewRequired = res.ConfidenceScore < o.reviewThreshold
		return o.finish(res, domain.StageRejected, assessment.Metrics, "quality gate rejected"), nil
	}

	// 3. ENHANCE
	workPath := req.FilePath
	if o.shouldEnhance(detection, assessment, req.Options) {
		o.enter(res, domain.StageEnhancing, assessment.Metrics, "")
		enhanced, err := o.enhancer.Enhance(ctx, req.FilePath)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logger.Warn("Enhancement failed for %s: %v", req.FileID, err)
			res.Errors = append(res.Errors, err.Error())
		default:
			workPath = enhanced
			res.EnhancedPath = enhanced
		}
	}

	// 4. DISPATCH
	o.enter(res, domain.StageDispatching, nil, "")
	extractor := o.extractors.For(detection.FileType, detection.MIMEType)
	if extractor == nil {
		return o.fail(res, fmt.Errorf("%w: no extractor for %s", domain.ErrExtraction, detection.FileType)), nil
	}
	res.Metadata["extractor"] = extractor.Name()

	extraction, err := extractor.Process(ctx, workPath, detection.FileType, driven.ExtractOptions{
		Language: req.Options.Language,
		MIMEType: detection.MIMEType,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return o.fail(res, err), nil
	}

	res.ExtractedText = extraction.Text
	for k, v := range extraction.Metadata {
		res.Metadata[k] = v
	}
	if o.pipeline != nil && extraction.Text != "" {
		chunks, err := o.pipeline.Process(ctx, extraction.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Errors = append(res.Errors, fmt.Sprintf("chunking: %v", err))
		} else {
			res.Chunks = chunks
		}
	}

	res.ConfidenceScore = assessment.OverallScore
	if extraction.Confidence != nil {
		res.ConfidenceScore = *extraction.Confidence
	}
	res.HumanReviewRequired = res.ConfidenceScore < o.reviewThreshold
	res.Success = true
	return o.finish(res, domain.StageCompleted, nil, ""), nil
}

// Assess runs detection and the quality gate without extraction.
func (o *IntakeOrchestrator) Assess(ctx context.Context, path string) (*domain.DetectionResult, *domain.QualityAssessment, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	detection := o.detector.Detect(ctx, path)
	assessment, err := o.assessor.Assess(ctx, path, detection)
	if err != nil {
		return &detection, nil, err
	}
	return &detection, assessment, nil
}

// shouldEnhance limits enhancement to images the gate marked ENHANCE.
// Forced rejects are enhanced as well.
func (o *IntakeOrchestrator) shouldEnhance(d domain.DetectionResult, qa *domain.QualityAssessment, opts domain.IntakeOptions) bool {
	if o.enhancer == nil || opts.SkipEnhancement || d.FileType != domain.FileTypeImage {
		return false
	}
	return qa.Decision == domain.DecisionEnhance || qa.Decision == domain.DecisionReject
}

func (o *IntakeOrchestrator) enter(res *domain.ProcessingResult, stage domain.Stage, metrics map[string]float64, msg string) {
	res.Stage = stage
	o.reporter.Report(domain.ProgressEvent{
		FileID:  res.FileID,
		Stage:   stage,
		Metrics: metrics,
		Message: msg,
		Time:    o.now(),
	})
}

func (o *IntakeOrchestrator) fail(res *domain.ProcessingResult, err error) *domain.ProcessingResult {
	res.Errors = append(res.Errors, err.Error())
	res.Success = false
	level := logger.Warn
	if errors.Is(err, domain.ErrValidation) {
		level = logger.Debug
	}
	level("Intake failed for %s at %s: %v", res.FileID, res.Stage, err)
	return o.finish(res, domain.StageFailed, nil, err.Error())
}

func (o *IntakeOrchestrator) finish(res *domain.ProcessingResult, stage domain.Stage, metrics map[string]float64, msg string) *domain.ProcessingResult {
	res.CompletedAt = o.now()
	o.enter(res, stage, metrics, msg)
	return res
}
