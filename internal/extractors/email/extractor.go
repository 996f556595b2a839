// Package email extracts text from RFC 822 messages.
package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles EMAIL files.
type Extractor struct {
	policy *bluemonday.Policy
}

// New creates an email extractor.
func New() *Extractor {
	return &Extractor{policy: bluemonday.StrictPolicy()}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "email"
}

// CanProcess reports whether the file type is EMAIL.
func (e *Extractor) CanProcess(fileType domain.FileType) bool {
	return fileType == domain.FileTypeEmail
}

// Process parses the message and returns headers followed by the body.
// Plain text parts are preferred over HTML parts.
func (e *Extractor) Process(ctx context.Context, path string, _ domain.FileType, _ driven.ExtractOptions) (*domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parse message: %v", domain.ErrExtraction, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))
	from := decodeHeader(msg.Header.Get("From"))
	to := decodeHeader(msg.Header.Get("To"))
	date := msg.Header.Get("Date")

	body := e.partText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)

	var content strings.Builder
	for _, h := range [][2]string{{"From", from}, {"To", to}, {"Date", date}, {"Subject", subject}} {
		if h[1] != "" {
			fmt.Fprintf(&content, "%s: %s\n", h[0], h[1])
		}
	}
	content.WriteString("\n")
	content.WriteString(body.text())

	meta := map[string]any{
		"format":      "eml",
		"title":       subject,
		"attachments": body.attachments,
	}
	for k, v := range map[string]string{"from": from, "to": to, "date": date} {
		if v != "" {
			meta[k] = v
		}
	}

	return &domain.ExtractionResult{
		Text:     strings.TrimSpace(content.String()),
		Metadata: meta,
	}, nil
}

type body struct {
	plain       []string
	html        []string
	attachments []string
}

func (b *body) text() string {
	if len(b.plain) > 0 {
		return strings.Join(b.plain, "\n")
	}
	return strings.Join(b.html, "\n")
}

func (e *Extractor) partText(contentType, encoding string, r io.Reader) *body {
	b := &body{}
	e.walk(b, contentType, encoding, "", r)
	return b
}

func (e *Extractor) walk(b *body, contentType, encoding, disposition string, r io.Reader) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				return
			}
			e.walk(b, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"),
				part.Header.Get("Content-Disposition"), part)
			part.Close()
		}
	}

	if name := attachmentName(disposition, params); name != "" {
		b.attachments = append(b.attachments, name)
		return
	}

	raw, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return
	}
	switch mediaType {
	case "text/plain":
		b.plain = append(b.plain, strings.TrimSpace(string(raw)))
	case "text/html":
		b.html = append(b.html, strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(string(raw)))))
	}
}

func attachmentName(disposition string, params map[string]string) string {
	if disposition != "" {
		d, dp, err := mime.ParseMediaType(disposition)
		if err == nil && d == "attachment" {
			if dp["filename"] != "" {
				return decodeHeader(dp["filename"])
			}
			return "unnamed"
		}
	}
	return ""
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return bytes.NewReader(nil)
		}
		clean := strings.Map(func(c rune) rune {
			if c == '\r' || c == '\n' || c == ' ' {
				return -1
			}
			return c
		}, string(raw))
		decoded, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return bytes.NewReader(raw)
		}
		return bytes.NewReader(decoded)
	}
	return r
}

// decodeHeader decodes RFC 2047 encoded words.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
