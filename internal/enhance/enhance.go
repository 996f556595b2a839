// Package enhance improves low-quality scans before extraction.
package enhance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// Options tune the enhancement steps.
type Options struct {
	// DenoiseSigma is the Gaussian blur applied first.
	DenoiseSigma float64
	// Contrast is the percentage passed to AdjustContrast.
	Contrast float64
	// Sharpen is the unsharp sigma applied after contrast.
	Sharpen float64
	// Gamma below 1 darkens, above 1 lightens.
	Gamma float64
	// OutputDir receives enhanced files. Empty writes next to the original.
	OutputDir string
}

// DefaultOptions returns the settings used by the intake pipeline.
func DefaultOptions() Options {
	return Options{
		DenoiseSigma: 0.5,
		Contrast:     20,
		Sharpen:      1.0,
		Gamma:        1.1,
	}
}

var _ driven.Enhancer = (*Enhancer)(nil)

// Enhancer implements driven.Enhancer with disintegration/imaging.
type Enhancer struct {
	opts Options
}

// New creates an enhancer.
func New(opts Options) *Enhancer {
	return &Enhancer{opts: opts}
}

// Enhance writes <name>.enhanced.png and returns its path. The original is untouched.
func (e *Enhancer) Enhance(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decoding %s: %v", domain.ErrEnhancement, filepath.Base(path), err)
	}

	if e.opts.DenoiseSigma > 0 {
		img = imaging.Blur(img, e.opts.DenoiseSigma)
	}
	img = imaging.AdjustContrast(img, e.opts.Contrast)
	if e.opts.Sharpen > 0 {
		img = imaging.Sharpen(img, e.opts.Sharpen)
	}
	if e.opts.Gamma > 0 {
		img = imaging.AdjustGamma(img, e.opts.Gamma)
	}

	out := OutputPath(path, e.opts.OutputDir)
	if err := os.MkdirAll(filepath.Dir(out), 0700); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEnhancement, err)
	}
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("%w: saving %s: %v", domain.ErrEnhancement, filepath.Base(out), err)
	}
	return out, nil
}

// OutputPath is where Enhance writes the enhanced copy of path. In a shared
// dir the name is prefixed with the parent directory of path, which for a
// staged file is its document ID.
func OutputPath(path, dir string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".enhanced.png"
	if dir == "" {
		return filepath.Join(filepath.Dir(path), base)
	}
	if parent := filepath.Base(filepath.Dir(path)); parent != "." && parent != string(filepath.Separator) {
		base = parent + "-" + base
	}
	return filepath.Join(dir, base)
}
