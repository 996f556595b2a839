package domain

import "time"

// Stage is a step of the per-document intake state machine.
type Stage string

const (
	StageDetecting   Stage = "DETECTING"
	StageAssessing   Stage = "ASSESSING"
	StageEnhancing   Stage = "ENHANCING"
	StageDispatching Stage = "DISPATCHING"
	StageRejected    Stage = "REJECTED"
	StageCompleted   Stage = "COMPLETED"
	StageFailed      Stage = "FAILED"
)

// IsTerminal reports whether no further transitions follow.
func (s Stage) IsTerminal() bool {
	return s == StageRejected || s == StageCompleted || s == StageFailed
}

// IntakeOptions tune a single pipeline run.
type IntakeOptions struct {
	// SkipEnhancement disables the enhancement branch.
	SkipEnhancement bool `json:"skip_enhancement,omitempty"`

	// ForceProcess dispatches even when the quality gate rejects.
	ForceProcess bool `json:"force_process,omitempty"`

	// Language hints the OCR engine.
	Language Language `json:"language,omitempty"`
}

// IntakeRequest is the orchestrator's input.
type IntakeRequest struct {
	FilePath string
	FileID   string
	Options  IntakeOptions
}

// ExtractionResult is what a format extractor returns.
type ExtractionResult struct {
	Text     string
	Metadata map[string]any

	// Confidence is set by extractors that can measure it (OCR).
	Confidence *float64
}

// TextChunk is a slice of extracted text handed to the downstream indexer.
type TextChunk struct {
	Index   int    `json:"index" msgpack:"index"`
	Content string `json:"content" msgpack:"content"`
	// Offset is the byte offset of Content within the extracted text.
	Offset int `json:"offset" msgpack:"offset"`
}

// ProcessingResult is the record of one document's pass through the pipeline.
type ProcessingResult struct {
	FileID  string `json:"file_id" msgpack:"file_id"`
	Success bool   `json:"success" msgpack:"success"`
	Stage   Stage  `json:"stage" msgpack:"stage"`

	ExtractedText string         `json:"extracted_text,omitempty" msgpack:"extracted_text,omitempty"`
	Chunks        []TextChunk    `json:"chunks,omitempty" msgpack:"chunks,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	Errors        []string       `json:"errors,omitempty" msgpack:"errors,omitempty"`

	Detection *DetectionResult   `json:"detection,omitempty" msgpack:"detection,omitempty"`
	Quality   *QualityAssessment `json:"quality,omitempty" msgpack:"quality,omitempty"`

	OriginalPath string `json:"original_path" msgpack:"original_path"`
	EnhancedPath string `json:"enhanced_path,omitempty" msgpack:"enhanced_path,omitempty"`

	ConfidenceScore     float64 `json:"confidence_score" msgpack:"confidence_score"`
	HumanReviewRequired bool    `json:"human_review_required" msgpack:"human_review_required"`

	StartedAt   time.Time `json:"started_at" msgpack:"started_at"`
	CompletedAt time.Time `json:"completed_at" msgpack:"completed_at"`
}

// Dispatched reports whether the pipeline reached a decision that should
// mark the document as processed. Rejections count; failures do not.
func (r *ProcessingResult) Dispatched() bool {
	return r.Stage == StageCompleted || r.Stage == StageRejected
}

// ProgressEvent is emitted on each stage transition.
type ProgressEvent struct {
	FileID  string             `json:"file_id"`
	Stage   Stage              `json:"stage"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Message string             `json:"message,omitempty"`
	Time    time.Time          `json:"time"`
}
