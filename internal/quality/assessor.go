package quality

import (
	"context"
	"fmt"
	"os"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// DefaultScore stands in for an image score or text density that does not
// apply to the file.
const DefaultScore = 0.8

// Document size bands for text density.
const (
	smallDocument  = 1 << 10
	mediumDocument = 10 << 10
	largeDocument  = 10 << 20
)

// Config holds the gate's limits.
type Config struct {
	MaxFileSize           int64
	ImageQualityThreshold float64
	TextDensityThreshold  float64
}

// ConfigFrom picks the gate's limits out of the intake configuration.
func ConfigFrom(cfg domain.IntakeConfig) Config {
	return Config{
		MaxFileSize:           cfg.MaxFileSize,
		ImageQualityThreshold: cfg.ImageQualityThreshold,
		TextDensityThreshold:  cfg.TextDensityThreshold,
	}
}

var _ driven.Assessor = (*Assessor)(nil)

// Assessor implements driven.Assessor.
type Assessor struct {
	cfg Config
}

// New creates an assessor.
func New(cfg Config) *Assessor {
	return &Assessor{cfg: cfg}
}

// Assess scores the file at path.
func (a *Assessor) Assess(ctx context.Context, path string, detection domain.DetectionResult) (*domain.QualityAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	size := info.Size()

	qa := &domain.QualityAssessment{
		FileSizeValid: size <= a.cfg.MaxFileSize,
		Metrics:       map[string]float64{"file_size": float64(size)},
	}
	if !qa.FileSizeValid {
		qa.Decision = domain.DecisionReject
		qa.Issues = append(qa.Issues, fmt.Sprintf("file size %d bytes exceeds the %d byte limit", size, a.cfg.MaxFileSize))
		qa.Recommendations = append(qa.Recommendations, "split the document or reduce its resolution before resubmitting")
		return qa, nil
	}

	switch {
	case detection.FileType == domain.FileTypeImage:
		a.assessImage(path, qa)
	case detection.FileType.IsDocument():
		d := DocumentDensity(size)
		qa.TextDensity = &d
	}

	if qa.TextDensity != nil && *qa.TextDensity < a.cfg.TextDensityThreshold {
		qa.Issues = append(qa.Issues, fmt.Sprintf("low text density (%.2f)", *qa.TextDensity))
		qa.Recommendations = append(qa.Recommendations, "check that the file contains readable text")
	}

	qa.OverallScore = Overall(qa.ImageQualityScore, qa.TextDensity)
	qa.Decision = domain.DecisionFor(qa.OverallScore)
	return qa, nil
}

func (a *Assessor) assessImage(path string, qa *domain.QualityAssessment) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		qa.Issues = append(qa.Issues, "image could not be decoded: "+err.Error())
		qa.Recommendations = append(qa.Recommendations, "convert the image to PNG or JPEG")
		return
	}

	scores := ScoreImage(img)
	score := scores.Weighted()
	density := ImageTextDensity(img)
	qa.ImageQualityScore = &score
	qa.TextDensity = &density
	for k, v := range scores.Metrics() {
		qa.Metrics[k] = v
	}
	qa.Metrics["width"] = float64(img.Bounds().Dx())
	qa.Metrics["height"] = float64(img.Bounds().Dy())

	if score < a.cfg.ImageQualityThreshold {
		qa.Issues = append(qa.Issues, fmt.Sprintf("low image quality (%.2f)", score))
	}
	for _, c := range []struct {
		value float64
		issue string
		fix   string
	}{
		{scores.Sharpness, "image is blurry", "rescan with the document in focus"},
		{scores.Contrast, "image has low contrast", "rescan with even lighting"},
		{scores.Brightness, "image is too dark or too bright", "adjust exposure when scanning"},
		{scores.Noise, "image is noisy", "use a higher quality scan setting"},
		{scores.Resolution, "image resolution is low", "scan at 300 DPI or higher"},
	} {
		if c.value < a.cfg.ImageQualityThreshold {
			qa.Issues = append(qa.Issues, c.issue)
			qa.Recommendations = append(qa.Recommendations, c.fix)
		}
	}
}

// DocumentDensity estimates text density for a document from its size.
func DocumentDensity(size int64) float64 {
	switch {
	case size < smallDocument:
		return 0.3
	case size < mediumDocument:
		return 0.6
	case size < largeDocument:
		return 0.9
	default:
		return 0.7
	}
}

// Overall is the mean of the size verdict, the image score and the density.
// Callers only reach this once the size gate passed.
func Overall(imageScore, textDensity *float64) float64 {
	img, density := DefaultScore, DefaultScore
	if imageScore != nil {
		img = *imageScore
	}
	if textDensity != nil {
		density = *textDensity
	}
	return (1.0 + img + density) / 3
}
