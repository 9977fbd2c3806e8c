package core

import (
	"encoding/json"
	"fmt"
)

// Field names shared by the request and response payloads
const (
	FieldSize          = "size"
	FieldAttachments   = "attachments"
	FieldNumRecipients = "num_recipients"
	FieldHour          = "hour"
	FieldDayOfWeek     = "day_of_week"
	FieldAnomaly       = "anomaly"
	FieldStatus        = "status"
)

// FeatureFields lists the numeric columns every classified record carries.
// Absent columns are filled with zero.
var FeatureFields = []string{
	FieldSize,
	FieldAttachments,
	FieldNumRecipients,
	FieldHour,
	FieldDayOfWeek,
}

// Status names the rule that fired for a record
type Status string

const (
	StatusMassRecipient       Status = "Mass Recipient Anomaly"
	StatusLargeExfiltration   Status = "Large Data Exfiltration"
	StatusHighAttachmentCount Status = "High Attachment Count"
	StatusNormal              Status = "Normal"
)

// Verdict is the outcome of rule evaluation for a single record
type Verdict struct {
	Anomaly int    `json:"anomaly" yaml:"anomaly"`
	Status  Status `json:"status" yaml:"status"`
}

// IsAnomaly reports whether any rule flagged the record
func (v Verdict) IsAnomaly() bool {
	return v.Anomaly == 1
}

// Features holds the numeric inputs to the rules
type Features struct {
	Size          float64
	Attachments   float64
	NumRecipients float64
	Hour          float64
	DayOfWeek     float64
}

// Record is one message's metadata as submitted by a client. Fields other
// than the feature columns are carried through untouched.
type Record map[string]any

// Feature returns the numeric value of a column. Missing and null values are zero.
func (r Record) Feature(name string) (float64, error) {
	v, ok := r[name]
	if !ok || v == nil {
		return 0, nil
	}

	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%s", ErrNonNumericFeature, name, n)
		}
		return f, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrNonNumericFeature, name, v)
	}
}

// Features extracts all feature columns from the record
func (r Record) Features() (Features, error) {
	var f Features
	var err error
	if f.Size, err = r.Feature(FieldSize); err != nil {
		return Features{}, err
	}
	if f.Attachments, err = r.Feature(FieldAttachments); err != nil {
		return Features{}, err
	}
	if f.NumRecipients, err = r.Feature(FieldNumRecipients); err != nil {
		return Features{}, err
	}
	if f.Hour, err = r.Feature(FieldHour); err != nil {
		return Features{}, err
	}
	if f.DayOfWeek, err = r.Feature(FieldDayOfWeek); err != nil {
		return Features{}, err
	}
	return f, nil
}

// Annotate returns a copy of the record with absent feature columns set to
// zero and the verdict's anomaly and status fields added.
func (r Record) Annotate(v Verdict) Record {
	out := make(Record, len(r)+len(FeatureFields)+2)
	for k, val := range r {
		out[k] = val
	}
	for _, name := range FeatureFields {
		if _, ok := out[name]; !ok {
			out[name] = 0
		}
	}
	out[FieldAnomaly] = v.Anomaly
	out[FieldStatus] = string(v.Status)
	return out
}
