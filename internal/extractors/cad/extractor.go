// Package cad extracts text entities from DXF drawings.
package cad

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

var mtextCodes = regexp.MustCompile(`\\[A-Za-z][^;\\{}]*;|[{}]`)

// Extractor handles CAD files. Only ASCII DXF is readable; binary DWG is
// reported as an extraction failure.
type Extractor struct{}

// New creates a CAD extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "cad"
}

// CanProcess reports whether the file type is CAD.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	return fileType == domain.FileTypeCAD
}

// Process collects TEXT, MTEXT, ATTRIB and ATTDEF values in drawing order.
func (e *Extractor) Process(ctx context.Context, path string, _ domain.FileType, _ driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".dwg") {
		return nil, fmt.Errorf("%w: DWG drawings are not supported", domain.ErrExtraction)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	d, err := parse(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("%w: dxf: %v", domain.ErrExtraction, err)
	}

	layers := make([]string, 0, len(d.layers))
	for l := range d.layers {
		layers = append(layers, l)
	}
	sort.Strings(layers)

	return &domain.ExtractionResult{
		Text: strings.Join(d.texts, "\n"),
		Metadata: map[string]any{
			"format":        "dxf",
			"entities":      d.entities,
			"text_entities": len(d.texts),
			"layers":        layers,
		},
	}, nil
}

type drawing struct {
	texts    []string
	layers   map[string]struct{}
	entities int
}

func parse(sc *bufio.Scanner) (*drawing, error) {
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	d := &drawing{layers: make(map[string]struct{})}

	var (
		inEntities bool
		entity     string
		current    strings.Builder
		pairs      int
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			d.texts = append(d.texts, cleanMText(s))
		}
		current.Reset()
	}

	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, fmt.Errorf("group code %q without value", code)
		}
		value := strings.TrimRight(sc.Text(), "\r")
		pairs++

		switch code {
		case "0":
			flush()
			entity = strings.TrimSpace(value)
			switch entity {
			case "ENDSEC":
				inEntities = false
			case "SECTION":
			default:
				if inEntities {
					d.entities++
				}
			}
		case "2":
			if entity == "SECTION" && (value == "ENTITIES" || value == "BLOCKS") {
				inEntities = true
			}
		case "8":
			if inEntities {
				d.layers[strings.TrimSpace(value)] = struct{}{}
			}
		case "1", "3":
			if inEntities && isTextEntity(entity) {
				current.WriteString(value)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	if pairs == 0 {
		return nil, fmt.Errorf("empty drawing")
	}
	return d, nil
}

func isTextEntity(entity string) bool {
	switch entity {
	case "TEXT", "MTEXT", "ATTRIB", "ATTDEF":
		return true
	}
	return false
}

// cleanMText drops MTEXT inline formatting and turns \P into newlines.
func cleanMText(s string) string {
	s = strings.ReplaceAll(s, `\P`, "\n")
	s = mtextCodes.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
