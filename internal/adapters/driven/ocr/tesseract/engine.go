// Package tesseract runs the tesseract CLI as an OCR engine.
package tesseract

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.OCREngine = (*Engine)(nil)

// DefaultBinary is looked up on PATH when no path is configured.
const DefaultBinary = "tesseract"

// Engine shells out to tesseract and parses its TSV output.
type Engine struct {
	binary    string
	languages string
	run       func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates an engine. languages is the tesseract -l value used when
// the document language is unknown (e.g. "eng" or "eng+mal").
func New(binary, languages string) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	if languages == "" {
		languages = "eng"
	}
	return &Engine{binary: binary, languages: languages, run: runCommand}
}

// Available reports whether the binary can be found.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Recognise returns the recognised text and the mean word confidence.
func (e *Engine) Recognise(ctx context.Context, path string, language domain.Language) (string, float64, error) {
	out, err := e.run(ctx, e.binary, path, "stdout", "-l", e.languageArg(language), "tsv")
	if err != nil {
		return "", 0, err
	}
	text, conf := ParseTSV(out)
	return text, conf, nil
}

func (e *Engine) languageArg(l domain.Language) string {
	switch l {
	case domain.LanguageEnglish, domain.LanguageMalayalam:
		return string(l)
	case domain.LanguageMixed:
		return "eng+mal"
	}
	return e.languages
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ParseTSV rebuilds text from tesseract TSV rows and returns it with the
// mean word confidence scaled to [0,1]. Words with negative confidence
// are layout rows and are skipped.
func ParseTSV(out []byte) (string, float64) {
	var (
		b        strings.Builder
		lastLine string
		sum      float64
		words    int
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		word := strings.TrimSpace(cols[11])
		if err != nil || conf < 0 || word == "" {
			continue
		}
		line := cols[2] + "." + cols[3] + "." + cols[4]
		switch {
		case b.Len() == 0:
		case line != lastLine:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
		lastLine = line
		b.WriteString(word)
		sum += conf
		words++
	}
	if words == 0 {
		return "", 0
	}
	return b.String(), min(sum/float64(words)/100, 1)
}
