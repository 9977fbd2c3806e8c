// Package batch decodes and encodes the JSON record batches exchanged with clients.
package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mikey/anomaly-classifier/internal/core"
)

var (
	// ErrNotABatch is returned when the payload is not a JSON array
	ErrNotABatch = errors.New("payload is not a JSON array")
	// ErrNotARecord is returned when an array element is not a JSON object
	ErrNotARecord = errors.New("batch element is not a JSON object")
)

// Decode parses a JSON array of record objects. Empty payloads and JSON
// values that carry nothing (null, false, 0, "", {}) yield core.ErrNoData;
// an empty array is a valid, empty batch.
func Decode(data []byte) ([]core.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, core.ErrNoData
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("failed to decode batch: trailing data after JSON value")
	}

	if isEmptyValue(payload) {
		return nil, core.ErrNoData
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotABatch, payload)
	}

	records := make([]core.Record, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrNotARecord, i, item)
		}
		records[i] = core.Record(obj)
	}
	return records, nil
}

// Encode writes records as a JSON array. A nil slice encodes as [].
func Encode(w io.Writer, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	if err := json.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	return nil
}

// isEmptyValue reports whether a decoded value carries no data. Arrays are
// never empty here: [] is a batch of zero records.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
