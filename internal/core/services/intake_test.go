package services

import (
	"context"
	"errors"
	"io"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// --- Mock collaborators for intake testing ---

type intakeMockDetector struct {
	result domain.DetectionResult
}

func (d *intakeMockDetector) Detect(context.Context, string) domain.DetectionResult { return d.result }
func (d *intakeMockDetector) DetectReader(context.Context, string, io.Reader) domain.DetectionResult {
	return d.result
}

type intakeMockAssessor struct {
	result *domain.QualityAssessment
	err    error
	calls  int
}

func (a *intakeMockAssessor) Assess(context.Context, string, domain.DetectionResult) (*domain.QualityAssessment, error) {
	a.calls++
	return a.result, a.err
}

type intakeMockEnhancer struct {
	path  string
	err   error
	calls int
}

func (e *intakeMockEnhancer) Enhance(context.Context, string) (string, error) {
	e.calls++
	return e.path, e.err
}

type intakeMockExtractor struct {
	name     string
	types    []domain.FileType
	result   *domain.ExtractionResult
	err      error
	lastPath string
	lastOpts driven.ExtractOptions
}

func (e *intakeMockExtractor) Name() string { return e.name }
func (e *intakeMockExtractor) CanProcess(ft domain.FileType) bool {
	for _, t := range e.types {
		if t == ft {
			return true
		}
	}
	return false
}
func (e *intakeMockExtractor) Process(_ context.Context, path string, _ domain.FileType, opts driven.ExtractOptions) (*domain.ExtractionResult, error) {
	e.lastPath, e.lastOpts = path, opts
	return e.result, e.err
}

type intakeMockSet []driven.Extractor

func (s intakeMockSet) For(ft domain.FileType, _ string) driven.Extractor {
	for _, e := range s {
		if e.CanProcess(ft) {
			return e
		}
	}
	return nil
}

type recordingReporter struct {
	mu     stdsync.Mutex
	stages []domain.Stage
}

func (r *recordingReporter) Report(e domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, e.Stage)
}

type chunkAll struct{}

func (chunkAll) Process(_ context.Context, text string) ([]domain.TextChunk, error) {
	return []domain.TextChunk{{Content: text}}, nil
}

func floatPtr(f float64) *float64 { return &f }

type intakeFixture struct {
	detector  *intakeMockDetector
	assessor  *intakeMockAssessor
	enhancer  *intakeMockEnhancer
	extractor *intakeMockExtractor
	reporter  *recordingReporter
	orch      *IntakeOrchestrator
}

func newIntakeFixture(fileType domain.FileType, decision domain.QualityDecision, score float64) *intakeFixture {
	f := &intakeFixture{
		detector: &intakeMockDetector{result: domain.DetectionResult{FileType: fileType, MIMEType: "x/y", Confidence: 1}},
		assessor: &intakeMockAssessor{result: &domain.QualityAssessment{
			FileSizeValid: true, OverallScore: score, Decision: decision,
			Issues: []string{"low contrast"}, Recommendations: []string{"rescan"},
		}},
		enhancer: &intakeMockEnhancer{path: "/work/scan.enhanced.png"},
		extractor: &intakeMockExtractor{
			name:   "stub",
			types:  []domain.FileType{domain.FileTypeImage, domain.FileTypePDF},
			result: &domain.ExtractionResult{Text: "hello", Metadata: map[string]any{"pages": 2}},
		},
		reporter: &recordingReporter{},
	}
	f.orch = NewIntakeOrchestrator(f.detector, f.assessor, intakeMockSet{f.extractor},
		WithEnhancer(f.enhancer),
		WithTextPipeline(chunkAll{}),
		WithProgressReporter(f.reporter),
	)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.orch.now = func() time.Time { return fixed }
	return f
}

func TestIntake_ProcessDecision(t *testing.T) {
	f := newIntakeFixture(domain.FileTypePDF, domain.DecisionProcess, 0.9)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/a.pdf", FileID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.ExtractedText)
	assert.Len(t, res.Chunks, 1)
	assert.Equal(t, 2, res.Metadata["pages"])
	assert.Equal(t, "stub", res.Metadata["extractor"])
	assert.InDelta(t, 0.9, res.ConfidenceScore, 1e-9)
	assert.False(t, res.HumanReviewRequired)
	assert.Equal(t, "/in/a.pdf", f.extractor.lastPath)
	assert.Equal(t, "x/y", f.extractor.lastOpts.MIMEType)
	assert.Zero(t, f.enhancer.calls)
	assert.Equal(t, []domain.Stage{
		domain.StageDetecting, domain.StageAssessing, domain.StageDispatching, domain.StageCompleted,
	}, f.reporter.stages)
}

func TestIntake_EnhanceImage(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeImage, domain.DecisionEnhance, 0.6)
	f.extractor.result.Confidence = floatPtr(0.95)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/scan.png"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
	assert.Equal(t, "scan.png", res.FileID)
	assert.Equal(t, "/work/scan.enhanced.png", res.EnhancedPath)
	assert.Equal(t, "/in/scan.png", res.OriginalPath)
	assert.Equal(t, "/work/scan.enhanced.png", f.extractor.lastPath)
	assert.InDelta(t, 0.95, res.ConfidenceScore, 1e-9)
	assert.Contains(t, f.reporter.stages, domain.StageEnhancing)
}

func TestIntake_EnhanceSkipped(t *testing.T) {
	t.Run("option", func(t *testing.T) {
		f := newIntakeFixture(domain.FileTypeImage, domain.DecisionEnhance, 0.6)
		_, err := f.orch.Process(context.Background(), domain.IntakeRequest{
			FilePath: "/in/scan.png", Options: domain.IntakeOptions{SkipEnhancement: true},
		})
		require.NoError(t, err)
		assert.Zero(t, f.enhancer.calls)
	})
	t.Run("not an image", func(t *testing.T) {
		f := newIntakeFixture(domain.FileTypePDF, domain.DecisionEnhance, 0.6)
		res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/a.pdf"})
		require.NoError(t, err)
		assert.Zero(t, f.enhancer.calls)
		assert.True(t, res.HumanReviewRequired)
	})
}

func TestIntake_EnhancementFailureUsesOriginal(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeImage, domain.DecisionEnhance, 0.6)
	f.enhancer.err = errors.New("decode failed")

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/scan.png"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
	assert.Empty(t, res.EnhancedPath)
	assert.Equal(t, "/in/scan.png", f.extractor.lastPath)
	assert.Contains(t, res.Errors, "decode failed")
}

func TestIntake_Rejected(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeImage, domain.DecisionReject, 0.3)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/scan.png"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageRejected, res.Stage)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"low contrast", "rescan"}, res.Errors)
	assert.True(t, res.Dispatched())
	assert.Empty(t, f.extractor.lastPath)
	assert.Zero(t, f.enhancer.calls)
}

func TestIntake_ForceProcess(t *testing.T) {
	f := newIntakeFixture(domain.FileTypePDF, domain.DecisionReject, 0.3)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{
		FilePath: "/in/a.pdf", Options: domain.IntakeOptions{ForceProcess: true},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, res.Stage)
	assert.True(t, res.HumanReviewRequired)
}

func TestIntake_Unsupported(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeUnknown, domain.DecisionProcess, 0.9)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/blob"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, res.Stage)
	assert.Zero(t, f.assessor.calls)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], domain.ErrValidation.Error())
	assert.False(t, res.Dispatched())
}

func TestIntake_NoExtractor(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeCAD, domain.DecisionProcess, 0.9)

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/plan.dxf"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, res.Stage)
	assert.NotNil(t, res.Quality, "quality metadata kept on failure")
	assert.NotNil(t, res.Detection)
}

func TestIntake_ExtractorError(t *testing.T) {
	f := newIntakeFixture(domain.FileTypePDF, domain.DecisionProcess, 0.9)
	f.extractor.err = domain.ErrExtraction

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, res.Stage)
	assert.Equal(t, []string{domain.ErrExtraction.Error()}, res.Errors)
}

func TestIntake_AssessorError(t *testing.T) {
	f := newIntakeFixture(domain.FileTypePDF, domain.DecisionProcess, 0.9)
	f.assessor.err = domain.ErrValidation

	res, err := f.orch.Process(context.Background(), domain.IntakeRequest{FilePath: "/in/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, res.Stage)
}

func TestIntake_InvalidRequest(t *testing.T) {
	f := newIntakeFixture(domain.FileTypePDF, domain.DecisionProcess, 0.9)

	_, err := f.orch.Process(context.Background(), domain.IntakeRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.orch.Process(ctx, domain.IntakeRequest{FilePath: "/in/a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntake_Assess(t *testing.T) {
	f := newIntakeFixture(domain.FileTypeImage, domain.DecisionEnhance, 0.6)

	det, qa, err := f.orch.Assess(context.Background(), "/in/scan.png")
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypeImage, det.FileType)
	assert.Equal(t, domain.DecisionEnhance, qa.Decision)
	assert.Zero(t, f.enhancer.calls)
}

func TestReporters(t *testing.T) {
	ch := make(chan domain.ProgressEvent, 1)
	cr := NewChannelReporter(ch)
	rec := &recordingReporter{}
	fan := FanOutReporter{cr, rec, nil, NopReporter{}, LogReporter{}}

	fan.Report(domain.ProgressEvent{Stage: domain.StageDetecting})
	fan.Report(domain.ProgressEvent{Stage: domain.StageAssessing})

	assert.Equal(t, domain.StageDetecting, (<-ch).Stage)
	assert.Equal(t, 1, cr.Dropped())
	assert.Len(t, rec.stages, 2)
}
