package domain

// QualityDecision is the outcome of the quality gate.
type QualityDecision string

const (
	DecisionProcess QualityDecision = "PROCESS"
	DecisionEnhance QualityDecision = "ENHANCE"
	DecisionReject  QualityDecision = "REJECT"
)

// Quality gate thresholds. Both are inclusive lower bounds.
const (
	ProcessThreshold = 0.8
	EnhanceThreshold = 0.5
)

// DecisionFor maps an overall quality score onto the quality gate.
func DecisionFor(score float64) QualityDecision {
	switch {
	case score >= ProcessThreshold:
		return DecisionProcess
	case score >= EnhanceThreshold:
		return DecisionEnhance
	default:
		return DecisionReject
	}
}

// QualityAssessment is the quality gate's verdict for one file.
type QualityAssessment struct {
	FileSizeValid bool `json:"file_size_valid"`

	// ImageQualityScore is nil for non-image content.
	ImageQualityScore *float64 `json:"image_quality_score,omitempty"`

	// TextDensity is nil when it could not be estimated.
	TextDensity *float64 `json:"text_density,omitempty"`

	OverallScore    float64         `json:"overall_quality_score"`
	Decision        QualityDecision `json:"decision"`
	Issues          []string        `json:"issues,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`

	// Metrics holds the individual sub-scores (sharpness, contrast, ...).
	Metrics map[string]float64 `json:"metrics,omitempty"`
}
