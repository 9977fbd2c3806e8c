// Package metadata derives classification records from raw RFC 5322 messages.
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/mikey/anomaly-classifier/internal/core"
	"github.com/mikey/anomaly-classifier/internal/utils"
	"go.uber.org/zap"
)

const (
	// maxDepth bounds recursion into nested multiparts
	maxDepth = 8
	// maxHeaderValue bounds decoded subjects and filenames
	maxHeaderValue = 256
)

// Summary is the metadata extracted from one message
type Summary struct {
	From            string
	Subject         string
	Size            int
	Attachments     int
	AttachmentNames []string
	NumRecipients   int
	Hour            int
	DayOfWeek       int
	Header          mail.Header
}

// Record converts the summary to the record shape the classifier expects
func (s *Summary) Record() core.Record {
	return core.Record{
		core.FieldSize:          s.Size,
		core.FieldAttachments:   s.Attachments,
		core.FieldNumRecipients: s.NumRecipients,
		core.FieldHour:          s.Hour,
		core.FieldDayOfWeek:     s.DayOfWeek,
	}
}

// Extractor parses messages into summaries
type Extractor struct {
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewExtractor creates a new Extractor
func NewExtractor(logger *zap.Logger, textProcessor *utils.TextProcessor) *Extractor {
	return &Extractor{
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract parses raw and summarises it. Envelope recipients, when given,
// take precedence over the To, Cc and Bcc headers for the recipient count.
func (e *Extractor) Extract(raw []byte, envelopeRecipients []string) (*Summary, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	s := &Summary{
		Size:    len(raw),
		From:    msg.Header.Get("From"),
		Subject: e.decode(msg.Header.Get("Subject")),
		Header:  msg.Header,
	}

	if len(envelopeRecipients) > 0 {
		s.NumRecipients = len(envelopeRecipients)
	} else {
		s.NumRecipients = countHeaderRecipients(msg.Header)
	}

	if date, err := msg.Header.Date(); err == nil {
		s.Hour = date.Hour()
		s.DayOfWeek = mondayFirst(date.Weekday())
	} else if !errors.Is(err, mail.ErrHeaderNotPresent) {
		e.logger.Debug("Ignoring unparsable Date header", zap.String("date", msg.Header.Get("Date")), zap.Error(err))
	}

	names, err := e.walk(textproto.MIMEHeader(msg.Header), msg.Body, 0)
	if err != nil {
		// Whatever was counted before the damaged part still stands
		e.logger.Warn("Failed to walk MIME structure", zap.Error(err), zap.Int("attachments_counted", len(names)))
	}
	s.Attachments = len(names)
	s.AttachmentNames = names

	return s, nil
}

// walk returns the names of the attachments in an entity and its children.
// Unnamed attachments are reported as an empty string.
func (e *Extractor) walk(header textproto.MIMEHeader, body io.Reader, depth int) ([]string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		if name, ok := e.attachmentName(header); ok {
			return []string{name}, nil
		}
		return nil, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, nil
	}
	if depth >= maxDepth {
		// Attachments below this point go uncounted
		e.logger.Warn("MIME nesting exceeds limit, skipping nested parts",
			zap.Int("max_depth", maxDepth),
			zap.String("content_type", mediaType))
		return nil, nil
	}

	var names []string
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, fmt.Errorf("failed to read MIME part: %w", err)
		}

		nested, err := e.walk(part.Header, part, depth+1)
		names = append(names, nested...)
		if err != nil {
			return names, err
		}
	}
}

// attachmentName reports whether a leaf entity is an attachment and its name
func (e *Extractor) attachmentName(header textproto.MIMEHeader) (string, bool) {
	var name string
	attachment := false

	if disposition, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		attachment = strings.EqualFold(disposition, "attachment")
		name = params["filename"]
	}
	if name == "" {
		if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
			name = params["name"]
		}
	}

	if !attachment && name == "" {
		return "", false
	}
	return e.decode(name), true
}

func (e *Extractor) decode(value string) string {
	decoded, err := DecodeHeader(value)
	if err != nil {
		e.logger.Debug("Keeping undecodable header value", zap.Error(err))
	}
	return e.textProcessor.CleanHeaderValue(decoded, maxHeaderValue)
}

// countHeaderRecipients counts the addresses in To, Cc and Bcc. Lists that
// fail strict parsing are counted by their comma-separated entries.
func countHeaderRecipients(header mail.Header) int {
	n := 0
	for _, key := range []string{"To", "Cc", "Bcc"} {
		value := header.Get(key)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if list, err := header.AddressList(key); err == nil {
			n += len(list)
			continue
		}
		for _, entry := range strings.Split(value, ",") {
			if strings.TrimSpace(entry) != "" {
				n++
			}
		}
	}
	return n
}

// mondayFirst maps time.Weekday (Sunday = 0) to Monday = 0 .. Sunday = 6
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
