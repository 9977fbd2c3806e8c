package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mikey/anomaly-classifier/internal/batch"
	"github.com/mikey/anomaly-classifier/internal/core"
	"github.com/mikey/anomaly-classifier/internal/metadata"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Printer renders classification results for a terminal or a pipe
type Printer struct {
	out     io.Writer
	format  string
	verbose bool
}

// MessageReport is the printable result for a single message
type MessageReport struct {
	From            string       `json:"from" yaml:"from"`
	Subject         string       `json:"subject" yaml:"subject"`
	Record          core.Record  `json:"record" yaml:"record"`
	AttachmentNames []string     `json:"attachment_names,omitempty" yaml:"attachment_names,omitempty"`
	Verdict         core.Verdict `json:"verdict" yaml:"verdict"`
	Exempt          bool         `json:"exempt,omitempty" yaml:"exempt,omitempty"`
}

// NewPrinter creates a new Printer
func NewPrinter(out io.Writer, format string, verbose bool) (*Printer, error) {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
	case "":
		format = FormatText
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Printer{out: out, format: format, verbose: verbose}, nil
}

// PrintBatch renders annotated records
func (p *Printer) PrintBatch(records []core.Record, duration time.Duration) error {
	switch p.format {
	case FormatJSON:
		// Same wire form as a /predict response
		return batch.Encode(p.out, records)
	case FormatYAML:
		plain := make([]map[string]any, len(records))
		for i, r := range records {
			plain[i] = plainRecord(r)
		}
		return p.writeYAML(plain)
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSIZE\tATTACHMENTS\tRECIPIENTS\tHOUR\tDAY\tANOMALY\tSTATUS")
	anomalies := 0
	for i, r := range records {
		if fmt.Sprint(r[core.FieldAnomaly]) == "1" {
			anomalies++
		}
		fmt.Fprintf(tw, "%d\t%v\t%v\t%v\t%v\t%v\t%v\t%v\n",
			i,
			r[core.FieldSize],
			r[core.FieldAttachments],
			r[core.FieldNumRecipients],
			r[core.FieldHour],
			r[core.FieldDayOfWeek],
			r[core.FieldAnomaly],
			r[core.FieldStatus])
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	fmt.Fprintf(p.out, "\n%d records, %d anomalies\n", len(records), anomalies)
	if p.verbose {
		fmt.Fprintf(p.out, "Processing time: %v\n", duration)
	}
	return nil
}

// PrintMessage renders the result for one message
func (p *Printer) PrintMessage(report *MessageReport, duration time.Duration) error {
	switch p.format {
	case FormatJSON:
		return p.writeJSON(report)
	case FormatYAML:
		plain := *report
		plain.Record = plainRecord(report.Record)
		return p.writeYAML(&plain)
	}

	fmt.Fprintf(p.out, "\n=== Message Summary ===\n")
	fmt.Fprintf(p.out, "From: %s\n", report.From)
	fmt.Fprintf(p.out, "Subject: %s\n", report.Subject)
	fmt.Fprintf(p.out, "Size: %v bytes\n", report.Record[core.FieldSize])
	fmt.Fprintf(p.out, "Attachments: %v\n", report.Record[core.FieldAttachments])
	if p.verbose {
		for _, name := range report.AttachmentNames {
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Fprintf(p.out, "  - %s\n", name)
		}
	}
	fmt.Fprintf(p.out, "Recipients: %v\n", report.Record[core.FieldNumRecipients])
	fmt.Fprintf(p.out, "Hour: %v\n", report.Record[core.FieldHour])
	fmt.Fprintf(p.out, "Day of week: %v\n", report.Record[core.FieldDayOfWeek])

	fmt.Fprintf(p.out, "\n=== Results ===\n")
	if report.Exempt {
		fmt.Fprintf(p.out, "Anomaly: 0 (sender domain is exempt)\n")
	} else {
		fmt.Fprintf(p.out, "Anomaly: %d\n", report.Verdict.Anomaly)
		fmt.Fprintf(p.out, "Status: %s\n", report.Verdict.Status)
	}
	fmt.Fprintf(p.out, "Processing time: %v\n", duration)
	return nil
}

func (p *Printer) writeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func (p *Printer) writeYAML(v any) error {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return enc.Close()
}

// plainRecord turns json.Number values into Go numbers so YAML prints them
// unquoted
func plainRecord(r core.Record) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				out[k] = i
			} else if f, err := n.Float64(); err == nil {
				out[k] = f
			} else {
				out[k] = n.String()
			}
			continue
		}
		out[k] = v
	}
	return out
}

// summaryReport builds a MessageReport from extracted metadata
func summaryReport(s *metadata.Summary) *MessageReport {
	return &MessageReport{
		From:            s.From,
		Subject:         s.Subject,
		Record:          s.Record(),
		AttachmentNames: s.AttachmentNames,
	}
}
