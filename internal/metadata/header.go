package metadata

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts encoded-word payloads in charsets the standard
// library does not know (windows-1252, koi8-r, shift_jis, ...) to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.ToLower(charset))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// DecodeHeader decodes RFC 2047 encoded words in a header value
func DecodeHeader(value string) (string, error) {
	if !strings.Contains(value, "=?") {
		return value, nil
	}
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value, fmt.Errorf("failed to decode header: %w", err)
	}
	return decoded, nil
}
