package quality

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// Sub-score weights for the image score.
const (
	SharpnessWeight  = 0.3
	ContrastWeight   = 0.2
	BrightnessWeight = 0.2
	NoiseWeight      = 0.2
	ResolutionWeight = 0.1
)

const (
	sharpnessScale  = 1000.0
	contrastScale   = 64.0
	noiseScale      = 500.0
	referencePixels = 1920 * 1080

	// analysisSide bounds the working copy used for pixel statistics.
	analysisSide = 1024

	darkLevel     = 128
	minRegionArea = 4
	densityScale  = 5.0
)

// ImageScores holds the sub-scores of one image, each in [0,1].
type ImageScores struct {
	Sharpness  float64
	Contrast   float64
	Brightness float64
	Noise      float64
	Resolution float64
}

// Weighted combines the sub-scores.
func (s ImageScores) Weighted() float64 {
	return s.Sharpness*SharpnessWeight +
		s.Contrast*ContrastWeight +
		s.Brightness*BrightnessWeight +
		s.Noise*NoiseWeight +
		s.Resolution*ResolutionWeight
}

// Metrics flattens the sub-scores for reporting.
func (s ImageScores) Metrics() map[string]float64 {
	return map[string]float64{
		"sharpness":  s.Sharpness,
		"contrast":   s.Contrast,
		"brightness": s.Brightness,
		"noise":      s.Noise,
		"resolution": s.Resolution,
	}
}

// grayPlane is a row-major luminance buffer.
type grayPlane struct {
	w, h int
	pix  []float64
}

func (g grayPlane) at(x, y int) float64 { return g.pix[y*g.w+x] }

// workingCopy returns a grayscale copy no larger than analysisSide.
func workingCopy(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() > analysisSide || b.Dy() > analysisSide {
		img = imaging.Fit(img, analysisSide, analysisSide, imaging.Box)
	}
	return imaging.Grayscale(img)
}

func planeOf(gray *image.NRGBA) grayPlane {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	plane := grayPlane{w: w, h: h, pix: make([]float64, w*h)}
	for i := range plane.pix {
		plane.pix[i] = float64(gray.Pix[i*4])
	}
	return plane
}

// ScoreImage computes the image sub-scores. Resolution uses the original
// dimensions; the other metrics use a bounded grayscale copy.
func ScoreImage(img image.Image) ImageScores {
	b := img.Bounds()
	wc := workingCopy(img)
	plane := planeOf(wc)

	mean, variance := meanVariance(plane.pix)
	residual := highFrequency(plane, imaging.Blur(wc, 1.0))
	_, noiseVar := meanVariance(residual)

	return ImageScores{
		Sharpness:  clamp01(laplacianVariance(plane) / sharpnessScale),
		Contrast:   clamp01(math.Sqrt(variance) / contrastScale),
		Brightness: clamp01(1 - math.Abs(mean-128)/128),
		Noise:      clamp01(1 / (1 + noiseVar/noiseScale)),
		Resolution: clamp01(float64(b.Dx()*b.Dy()) / referencePixels),
	}
}

func laplacianVariance(g grayPlane) float64 {
	if g.w < 3 || g.h < 3 {
		return 0
	}
	vals := make([]float64, 0, (g.w-2)*(g.h-2))
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			l := 4*g.at(x, y) - g.at(x-1, y) - g.at(x+1, y) - g.at(x, y-1) - g.at(x, y+1)
			vals = append(vals, l)
		}
	}
	_, v := meanVariance(vals)
	return v
}

// highFrequency subtracts a blurred copy of the same size.
func highFrequency(g grayPlane, blurred *image.NRGBA) []float64 {
	out := make([]float64, len(g.pix))
	for i := range g.pix {
		out[i] = g.pix[i] - float64(blurred.Pix[i*4])
	}
	return out
}

// ImageTextDensity estimates the share of an image covered by connected
// dark regions, scaled so a page about one fifth covered by ink scores 1.
func ImageTextDensity(img image.Image) float64 {
	g := planeOf(workingCopy(img))
	total := g.w * g.h
	if total == 0 {
		return 0
	}
	seen := make([]bool, total)
	covered := 0
	stack := make([]int, 0, 64)
	for start := range g.pix {
		if seen[start] || g.pix[start] >= darkLevel {
			continue
		}
		area := 0
		stack = append(stack[:0], start)
		seen[start] = true
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			area++
			x, y := i%g.w, i/g.w
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= g.w || n[1] >= g.h {
					continue
				}
				j := n[1]*g.w + n[0]
				if !seen[j] && g.pix[j] < darkLevel {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
		if area >= minRegionArea {
			covered += area
		}
	}
	return clamp01(float64(covered) / float64(total) * densityScale)
}

func meanVariance(vals []float64) (mean, variance float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		d := v - mean
		variance += d * d
	}
	return mean, variance / float64(len(vals))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
