package gmail

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// MIMETypeRFC822 is the content type of whole messages.
const MIMETypeRFC822 = "message/rfc822"

// userID addresses the authenticated mailbox.
const userID = "me"

// BuildQuery builds the search query for messages received after since.
// Gmail's after: operator takes epoch seconds and is exclusive, so one
// second is subtracted; the dedup store drops the overlap.
func BuildQuery(cfg *Config, since time.Time) string {
	var parts []string
	if !cfg.IncludeMessage {
		parts = append(parts, "has:attachment")
	}
	if !since.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", since.Unix()-1))
	}
	if cfg.Query != "" {
		parts = append(parts, cfg.Query)
	}
	return strings.Join(parts, " ")
}

// Attachment is a message part carrying a file.
type Attachment struct {
	Filename     string
	MimeType     string
	AttachmentID string
	// Data is set for small inline parts the API returns directly.
	Data string
	Size int64
}

// Attachments walks the message payload and returns every part with a file name.
func Attachments(msg *gmail.Message) []Attachment {
	var out []Attachment
	var walk func(p *gmail.MessagePart)
	walk = func(p *gmail.MessagePart) {
		if p == nil {
			return
		}
		if p.Filename != "" && p.Body != nil && (p.Body.AttachmentId != "" || p.Body.Data != "") {
			out = append(out, Attachment{
				Filename:     p.Filename,
				MimeType:     p.MimeType,
				AttachmentID: p.Body.AttachmentId,
				Data:         p.Body.Data,
				Size:         p.Body.Size,
			})
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(msg.Payload)
	return out
}

// Header returns the first header value with the given name.
func Header(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// InternalDate converts the message's millisecond timestamp.
func InternalDate(msg *gmail.Message) time.Time {
	return time.UnixMilli(msg.InternalDate).UTC()
}

// DecodeData decodes Gmail's base64url payloads, padded or not.
func DecodeData(s string) ([]byte, error) {
	if data, err := base64.URLEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	return data, nil
}

// AttachmentFilename prefixes the attachment name with the message ID so
// two mails with "scan.pdf" stay distinct.
func AttachmentFilename(msgID, name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	return msgID + "-" + name
}

// ToRawDocument builds a candidate document from message content.
func ToRawDocument(sourceID string, msg *gmail.Message, filename string, content []byte, mimeType string) domain.RawDocument {
	doc := domain.NewRawDocument(
		domain.ConnectorGmail,
		sourceID,
		filename,
		content,
		mimeType,
		fmt.Sprintf("gmail://messages/%s", msg.Id),
	)
	doc.UploadedAt = InternalDate(msg)
	doc.Metadata["message_id"] = msg.Id
	doc.Metadata["thread_id"] = msg.ThreadId
	doc.Metadata["labels"] = msg.LabelIds
	doc.Metadata["subject"] = Header(msg, "Subject")
	doc.Metadata["from"] = Header(msg, "From")
	doc.Metadata["date"] = Header(msg, "Date")
	return doc
}
