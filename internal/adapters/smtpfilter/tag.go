package smtpfilter

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/mikey/anomaly-classifier/internal/core"
	"github.com/mikey/anomaly-classifier/internal/metadata"
)

// tag prepends the verdict headers to raw and, for anomalies, prefixes the
// subject. Header order and the body are kept byte for byte. Inbound copies
// of the verdict headers are dropped so senders cannot pre-label a message.
func (f *Filter) tag(raw []byte, v core.Verdict, rawSubject string) []byte {
	headerEnd := headerBlockEnd(raw)

	var buf bytes.Buffer
	buf.Grow(len(raw) + 128)
	fmt.Fprintf(&buf, "%s: %d\r\n", f.cfg.FlagHeader, v.Anomaly)
	fmt.Fprintf(&buf, "%s: %s\r\n", f.cfg.StatusHeader, v.Status)

	newSubject, rewrite := f.prefixedSubject(v, rawSubject)

	for _, field := range headerFields(raw[:headerEnd]) {
		name := fieldName(field)
		switch {
		case strings.EqualFold(name, f.cfg.FlagHeader), strings.EqualFold(name, f.cfg.StatusHeader):
			continue
		case rewrite && strings.EqualFold(name, "Subject"):
			fmt.Fprintf(&buf, "Subject: %s\r\n", newSubject)
			rewrite = false
		default:
			buf.Write(field)
		}
	}

	if headerEnd == len(raw) {
		// Header-only message without a blank separator line
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	buf.Write(raw[headerEnd:])
	return buf.Bytes()
}

// prefixedSubject returns the encoded subject with the configured prefix and
// whether the Subject header should be rewritten at all
func (f *Filter) prefixedSubject(v core.Verdict, rawSubject string) (string, bool) {
	if !v.IsAnomaly() || !f.cfg.ModifySubject || f.cfg.SubjectPrefix == "" || rawSubject == "" {
		return "", false
	}

	decoded, err := metadata.DecodeHeader(rawSubject)
	if err != nil {
		decoded = rawSubject
	}
	decoded = f.textProcessor.SingleLine(f.textProcessor.SanitizeUTF8(decoded))

	if strings.HasPrefix(decoded, f.cfg.SubjectPrefix) {
		return "", false
	}
	return mime.QEncoding.Encode("utf-8", f.cfg.SubjectPrefix+decoded), true
}

// headerBlockEnd returns the offset just past the last header line, which is
// where the blank separator line starts. It is len(raw) when there is no body.
func headerBlockEnd(raw []byte) int {
	if bytes.HasPrefix(raw, []byte("\r\n")) || bytes.HasPrefix(raw, []byte("\n")) {
		return 0
	}
	crlf := bytes.Index(raw, []byte("\r\n\r\n"))
	lf := bytes.Index(raw, []byte("\n\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf + 2
	case lf >= 0:
		return lf + 1
	default:
		return len(raw)
	}
}

// headerFields splits a header block into fields, each with its folded
// continuation lines and original line endings
func headerFields(block []byte) [][]byte {
	var fields [][]byte
	for len(block) > 0 {
		end := bytes.IndexByte(block, '\n')
		if end < 0 {
			end = len(block)
		} else {
			end++
		}
		line := block[:end]
		block = block[end:]

		if len(fields) > 0 && (line[0] == ' ' || line[0] == '\t') {
			last := len(fields) - 1
			fields[last] = append(fields[last], line...)
			continue
		}
		fields = append(fields, append([]byte(nil), line...))
	}

	// Guarantee every field ends a line so prepended output stays well formed
	if n := len(fields); n > 0 && !bytes.HasSuffix(fields[n-1], []byte("\n")) {
		fields[n-1] = append(fields[n-1], '\r', '\n')
	}
	return fields
}

func fieldName(field []byte) string {
	colon := bytes.IndexByte(field, ':')
	if colon < 0 {
		return ""
	}
	return string(bytes.TrimSpace(field[:colon]))
}
