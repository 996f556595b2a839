package quality

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func testConfig() Config {
	return ConfigFrom(domain.DefaultIntakeConfig())
}

func checkerboard(size, square int) *image.NRGBA {
	img := imaging.New(size, size, color.White)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/square+y/square)%2 == 0 {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestImageScores_WorkedExample(t *testing.T) {
	scores := ImageScores{Sharpness: 0.2, Contrast: 0.4, Brightness: 0.9, Noise: 0.6, Resolution: 0.05}
	img := scores.Weighted()
	assert.InDelta(t, 0.445, img, 1e-9)

	overall := Overall(&img, nil)
	assert.InDelta(t, 0.748, overall, 1e-3)
	assert.Equal(t, domain.DecisionEnhance, domain.DecisionFor(overall))
}

func TestImageScores_Monotonic(t *testing.T) {
	base := ImageScores{Sharpness: 0.5, Contrast: 0.5, Brightness: 0.5, Noise: 0.5, Resolution: 0.5}
	tests := []struct {
		name string
		set  func(s *ImageScores, v float64)
	}{
		{"sharpness", func(s *ImageScores, v float64) { s.Sharpness = v }},
		{"contrast", func(s *ImageScores, v float64) { s.Contrast = v }},
		{"brightness", func(s *ImageScores, v float64) { s.Brightness = v }},
		{"noise", func(s *ImageScores, v float64) { s.Noise = v }},
		{"resolution", func(s *ImageScores, v float64) { s.Resolution = v }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prevImg, prevOverall := -1.0, -1.0
			for _, v := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1} {
				scores := base
				tt.set(&scores, v)
				img := scores.Weighted()
				overall := Overall(&img, nil)
				assert.GreaterOrEqual(t, img, prevImg, "weighted at %v", v)
				assert.GreaterOrEqual(t, overall, prevOverall, "overall at %v", v)
				prevImg, prevOverall = img, overall
			}
			low, high := base, base
			tt.set(&low, 0)
			tt.set(&high, 1)
			assert.Greater(t, high.Weighted(), low.Weighted())
		})
	}
}

func TestOverall_Defaults(t *testing.T) {
	assert.InDelta(t, (1.0+0.8+0.8)/3, Overall(nil, nil), 1e-9)

	low, high := 0.2, 0.9
	assert.Less(t, Overall(&low, nil), Overall(&high, nil))
	assert.Less(t, Overall(nil, &low), Overall(nil, &high))
}

func TestDocumentDensity_Bands(t *testing.T) {
	tests := []struct {
		size int64
		want float64
	}{
		{0, 0.3},
		{1023, 0.3},
		{1024, 0.6},
		{10*1024 - 1, 0.6},
		{10 * 1024, 0.9},
		{10<<20 - 1, 0.9},
		{10 << 20, 0.7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DocumentDensity(tt.size), "size %d", tt.size)
	}
}

func TestScoreImage_UniformGray(t *testing.T) {
	img := imaging.New(64, 64, color.Gray{Y: 128})
	s := ScoreImage(img)

	assert.InDelta(t, 0, s.Sharpness, 1e-9)
	assert.InDelta(t, 0, s.Contrast, 1e-9)
	assert.InDelta(t, 1, s.Brightness, 0.01)
	assert.InDelta(t, 1, s.Noise, 0.01)
	assert.InDelta(t, 64.0*64/(1920*1080), s.Resolution, 1e-9)
}

func TestScoreImage_SharpnessDropsWithBlur(t *testing.T) {
	sharp := checkerboard(128, 4)
	blurred := imaging.Blur(sharp, 3)

	assert.Greater(t, ScoreImage(sharp).Sharpness, ScoreImage(blurred).Sharpness)
	assert.Greater(t, ScoreImage(sharp).Contrast, 0.9)
}

func TestScoreImage_BoundedToUnitRange(t *testing.T) {
	s := ScoreImage(checkerboard(64, 1))
	for name, v := range s.Metrics() {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
}

func TestImageTextDensity(t *testing.T) {
	page := imaging.New(256, 256, color.White)
	assert.Equal(t, 0.0, ImageTextDensity(page))

	// Isolated specks are below the minimum region size.
	specks := imaging.Clone(page)
	for i := 0; i < 256; i += 16 {
		specks.Set(i, i, color.Black)
	}
	assert.Equal(t, 0.0, ImageTextDensity(specks))

	block := imaging.Paste(page, imaging.New(64, 64, color.Black), image.Pt(32, 32))
	assert.InDelta(t, 4096.0/65536*5, ImageTextDensity(block), 1e-9)

	dark := imaging.New(32, 32, color.Black)
	assert.Equal(t, 1.0, ImageTextDensity(dark))
}

func TestAssess_SizeGate(t *testing.T) {
	a := New(Config{MaxFileSize: 10, ImageQualityThreshold: 0.5, TextDensityThreshold: 0.1})
	ctx := context.Background()
	pdf := domain.DetectionResult{FileType: domain.FileTypePDF, MIMEType: "application/pdf", Confidence: 1}

	qa, err := a.Assess(ctx, writeFile(t, "big.pdf", make([]byte, 11)), pdf)
	require.NoError(t, err)
	assert.False(t, qa.FileSizeValid)
	assert.Equal(t, domain.DecisionReject, qa.Decision)
	assert.Zero(t, qa.OverallScore)
	assert.Nil(t, qa.TextDensity)
	assert.NotEmpty(t, qa.Issues)

	qa, err = a.Assess(ctx, writeFile(t, "limit.pdf", make([]byte, 10)), pdf)
	require.NoError(t, err)
	assert.True(t, qa.FileSizeValid)
}

func TestAssess_Documents(t *testing.T) {
	a := New(testConfig())
	ctx := context.Background()
	pdf := domain.DetectionResult{FileType: domain.FileTypePDF, Confidence: 1}

	qa, err := a.Assess(ctx, writeFile(t, "small.pdf", make([]byte, 500)), pdf)
	require.NoError(t, err)
	require.NotNil(t, qa.TextDensity)
	assert.Equal(t, 0.3, *qa.TextDensity)
	assert.Nil(t, qa.ImageQualityScore)
	assert.InDelta(t, 0.7, qa.OverallScore, 1e-9)
	assert.Equal(t, domain.DecisionEnhance, qa.Decision)

	qa, err = a.Assess(ctx, writeFile(t, "medium.pdf", make([]byte, 20<<10)), pdf)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, qa.OverallScore, 1e-9)
	assert.Equal(t, domain.DecisionProcess, qa.Decision)

	cad := domain.DetectionResult{FileType: domain.FileTypeCAD, Confidence: 1}
	qa, err = a.Assess(ctx, writeFile(t, "plan.dxf", make([]byte, 500)), cad)
	require.NoError(t, err)
	assert.Nil(t, qa.TextDensity)
	assert.InDelta(t, (1.0+0.8+0.8)/3, qa.OverallScore, 1e-9)
}

func TestAssess_Images(t *testing.T) {
	a := New(testConfig())
	ctx := context.Background()
	imgDetection := domain.DetectionResult{FileType: domain.FileTypeImage, MIMEType: "image/png", Confidence: 1}

	path := filepath.Join(t.TempDir(), "flat.png")
	require.NoError(t, imaging.Save(imaging.New(64, 64, color.Gray{Y: 128}), path))

	qa, err := a.Assess(ctx, path, imgDetection)
	require.NoError(t, err)
	require.NotNil(t, qa.ImageQualityScore)
	require.NotNil(t, qa.TextDensity)
	assert.InDelta(t, 0.4, *qa.ImageQualityScore, 0.01)
	assert.Equal(t, 0.0, *qa.TextDensity)
	assert.Equal(t, domain.DecisionReject, qa.Decision)
	assert.Contains(t, qa.Issues, "image is blurry")
	assert.Contains(t, qa.Metrics, "sharpness")
	assert.Equal(t, 64.0, qa.Metrics["width"])

	broken := writeFile(t, "broken.png", []byte("not an image"))
	qa, err = a.Assess(ctx, broken, imgDetection)
	require.NoError(t, err)
	assert.Nil(t, qa.ImageQualityScore)
	assert.InDelta(t, Overall(nil, nil), qa.OverallScore, 1e-9)
	require.NotEmpty(t, qa.Issues)
	assert.Contains(t, qa.Issues[0], "could not be decoded")
}

func TestAssess_MissingFile(t *testing.T) {
	_, err := New(testConfig()).Assess(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), domain.DetectionResult{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
