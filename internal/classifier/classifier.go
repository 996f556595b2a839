package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Vote weights. They sum to 1.
const (
	ExtensionWeight = 0.4
	MIMEWeight      = 0.3
	MagicWeight     = 0.3
)

// LowConfidence is the score under which the priority fallback applies.
const LowConfidence = 0.5

const (
	mimeConfidence        = 0.9
	genericMIMEConfidence = 0.1
)

// headerSize is how much of the stream the sniffers see.
const headerSize = 3072

var _ driven.Detector = (*Classifier)(nil)

// Classifier implements driven.Detector.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Detect classifies the file at path.
func (c *Classifier) Detect(ctx context.Context, path string) domain.DetectionResult {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("classifier: %s: %v", path, err)
		return domain.UnknownDetection()
	}
	defer f.Close()
	return c.DetectReader(ctx, filepath.Base(path), f)
}

// DetectReader classifies a stream. Only the first few KiB are read.
// Failures degrade to UNKNOWN.
func (c *Classifier) DetectReader(ctx context.Context, filename string, r io.Reader) domain.DetectionResult {
	header, err := readHeader(ctx, r)
	if err != nil {
		logger.Debug("classifier: %s: %v", filename, err)
		return domain.UnknownDetection()
	}
	return classify(filename, header)
}

func readHeader(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDetection, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: no content", domain.ErrDetection)
	}
	header, err := io.ReadAll(io.LimitReader(r, headerSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDetection, err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: empty content", domain.ErrDetection)
	}
	return header, nil
}

// ranked breaks score ties in priority order.
var ranked = append(append([]domain.FileType{}, priority...), domain.FileTypeUnknown)

// vote is one signal's opinion.
type vote struct {
	fileType   domain.FileType
	mime       string
	confidence float64
	weight     float64
}

func classify(filename string, header []byte) domain.DetectionResult {
	votes := []vote{
		extensionVote(filename),
		containerVote(header),
		magicVote(header),
	}

	scores := make(map[domain.FileType]float64)
	for _, v := range votes {
		if v.confidence > 0 {
			scores[v.fileType] += v.confidence * v.weight
		}
	}

	winner := domain.FileTypeUnknown
	best := -1.0
	for _, t := range ranked {
		if s, ok := scores[t]; ok && s > best {
			winner, best = t, s
		}
	}
	if best < LowConfidence {
		for _, t := range priority {
			if s, ok := scores[t]; ok {
				winner, best = t, s
				break
			}
		}
	}
	if best < 0 {
		best = 0
	}

	return domain.DetectionResult{
		FileType:   winner,
		MIMEType:   pickMIME(winner, votes),
		Confidence: min(best, 1.0),
	}
}

func extensionVote(filename string) vote {
	v := vote{fileType: domain.FileTypeUnknown, weight: ExtensionWeight}
	if e, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		v.fileType, v.mime, v.confidence = e.fileType, e.mime, 1.0
	}
	return v
}

func containerVote(header []byte) vote {
	mime := baseMIME(mimetype.Detect(header).String())
	v := vote{fileType: TypeForMIME(mime), mime: mime, confidence: mimeConfidence, weight: MIMEWeight}
	if mime == domain.GenericMIMEType {
		v.confidence = genericMIMEConfidence
	}
	return v
}

func magicVote(header []byte) vote {
	mime := sniffMagic(header)
	v := vote{fileType: TypeForMIME(mime), mime: mime, weight: MagicWeight}
	if v.fileType != domain.FileTypeUnknown {
		v.confidence = 1.0
	}
	return v
}

// sniffMagic checks signatures the WHATWG sniffer does not know, then
// falls back to it.
func sniffMagic(header []byte) string {
	switch {
	case bytes.HasPrefix(header, []byte("II*\x00")), bytes.HasPrefix(header, []byte("MM\x00*")):
		return "image/tiff"
	case bytes.HasPrefix(header, []byte{0xd0, 0xcf, 0x11, 0xe0}):
		return "application/x-ole-storage"
	case bytes.HasPrefix(header, []byte("AC10")):
		return "image/vnd.dwg"
	case isDXF(header):
		return "image/vnd.dxf"
	case isMailHeader(header):
		return "message/rfc822"
	}
	return baseMIME(http.DetectContentType(header))
}

func isDXF(header []byte) bool {
	lines := strings.SplitN(string(header[:min(len(header), 64)]), "\n", 3)
	return len(lines) >= 2 &&
		strings.TrimSpace(lines[0]) == "0" &&
		strings.TrimSpace(lines[1]) == "SECTION"
}

var mailHeaders = []string{"from:", "received:", "return-path:", "mime-version:", "delivered-to:", "message-id:"}

func isMailHeader(header []byte) bool {
	first, _, _ := strings.Cut(string(header[:min(len(header), 256)]), "\n")
	first = strings.ToLower(first)
	for _, h := range mailHeaders {
		if strings.HasPrefix(first, h) {
			return true
		}
	}
	return false
}

// pickMIME reports the most specific MIME among the votes for the winner.
func pickMIME(winner domain.FileType, votes []vote) string {
	for _, v := range votes {
		if v.fileType == winner && v.mime != "" && v.mime != domain.GenericMIMEType {
			return v.mime
		}
	}
	for _, v := range votes {
		if v.mime != "" && v.mime != domain.GenericMIMEType && v.mime != "text/plain" {
			return v.mime
		}
	}
	for _, v := range votes {
		if v.mime != "" {
			return v.mime
		}
	}
	return domain.GenericMIMEType
}
