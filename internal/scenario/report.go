package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shivanshkc/dagbench/pkg/bench"
	"github.com/shivanshkc/dagbench/pkg/utils/miscutils"
)

// Output formats accepted by Report.Render.
const (
	FormatText  = "text"
	FormatTable = "table"
)

// Field is a single key=value line item of a report.
type Field struct {
	Key   string
	Value any
}

// Section is one line of a report. Exactly one of Summary, Fanout, Fields or Note is set.
type Section struct {
	// Name distinguishes sections of the same kind, e.g. "write" and "read".
	Name    string
	Summary *bench.Summary
	Fanout  *bench.FanoutSummary
	Fields  []Field
	Note    string
}

// Report is the result of one scenario run.
type Report struct {
	Kind Kind
	// Label prefixes every text line, e.g. "read:event".
	Label    string
	Sections []Section
}

func (r *Report) addSummary(name string, summary bench.Summary) {
	r.Sections = append(r.Sections, Section{Name: name, Summary: &summary})
}

func (r *Report) addFanout(summary bench.FanoutSummary) {
	r.Sections = append(r.Sections, Section{Fanout: &summary})
}

func (r *Report) addFields(fields ...Field) {
	r.Sections = append(r.Sections, Section{Fields: fields})
}

func (r *Report) addNote(note string) {
	r.Sections = append(r.Sections, Section{Note: note})
}

// Summary returns the named summary section.
func (r *Report) Summary(name string) (bench.Summary, bool) {
	for _, section := range r.Sections {
		if section.Summary != nil && section.Name == name {
			return *section.Summary, true
		}
	}
	return bench.Summary{}, false
}

// Fanout returns the fan-out section, if the report has one.
func (r *Report) Fanout() (bench.FanoutSummary, bool) {
	for _, section := range r.Sections {
		if section.Fanout != nil {
			return *section.Fanout, true
		}
	}
	return bench.FanoutSummary{}, false
}

// Field returns the value of the given field key.
func (r *Report) Field(key string) (any, bool) {
	for _, section := range r.Sections {
		for _, field := range section.Fields {
			if field.Key == key {
				return field.Value, true
			}
		}
	}
	return nil, false
}

// Render writes the report to w in the given format.
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case FormatText, "":
		return r.renderText(w)
	case FormatTable:
		r.renderTable(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q, want text|table", format)
	}
}

func (r *Report) renderText(w io.Writer) error {
	prefix := "[" + r.Label + "] "
	for _, section := range r.Sections {
		var line string
		switch {
		case section.Summary != nil:
			line = section.Summary.String()
		case section.Fanout != nil:
			line = section.Fanout.String()
		case section.Fields != nil:
			line = formatFields(section.Fields)
		default:
			line = "note: " + section.Note
		}
		if section.Name != "" {
			line = section.Name + ": " + line
		}
		if _, err := fmt.Fprintln(w, prefix+line); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

func formatFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s=%v", field.Key, field.Value)
	}
	return strings.Join(parts, " ")
}

func (r *Report) renderTable(w io.Writer) {
	var summaries, fanouts []Section
	var fields []Field
	var notes []string
	for _, section := range r.Sections {
		switch {
		case section.Summary != nil:
			summaries = append(summaries, section)
		case section.Fanout != nil:
			fanouts = append(fanouts, section)
		case section.Fields != nil:
			fields = append(fields, section.Fields...)
		default:
			notes = append(notes, section.Note)
		}
	}

	newTable := func() table.Writer {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("%s", r.Label)
		t.SetStyle(table.StyleLight)
		return t
	}

	if len(fields) > 0 {
		t := newTable()
		t.AppendHeader(table.Row{"Key", "Value"})
		for _, field := range fields {
			t.AppendRow(table.Row{field.Key, field.Value})
		}
		t.Render()
	}

	if len(summaries) > 0 {
		t := newTable()
		t.AppendHeader(table.Row{"", "Total", "OK", "Fail", "RPS", "OK RPS",
			"Avg ms", "P50 ms", "P90 ms", "P95 ms", "P99 ms", "Max ms"})
		for _, section := range summaries {
			s := section.Summary
			t.AppendRow(table.Row{
				section.Name, s.Total, s.OK, s.Fail,
				fmt.Sprintf("%.1f", s.RPS), fmt.Sprintf("%.1f", s.OKRPS),
				ms(s.Avg), ms(s.P50), ms(s.P90), ms(s.P95), ms(s.P99), ms(s.Max),
			})
		}
		t.Render()
	}

	if len(fanouts) > 0 {
		t := newTable()
		t.AppendHeader(table.Row{"Subs", "Recv Total", "Recv Avg", "Recv Min", "Recv Max", "P50", "P90"})
		for _, section := range fanouts {
			s := section.Fanout
			t.AppendRow(table.Row{
				s.Subs, s.Total, fmt.Sprintf("%.2f", s.Avg), s.Min, s.Max,
				miscutils.FormatFloat(s.P50, 0), miscutils.FormatFloat(s.P90, 0),
			})
		}
		t.Render()
	}

	for _, note := range notes {
		_, _ = fmt.Fprintln(w, "note: "+note)
	}
}

func ms(v float64) string { return miscutils.FormatFloat(v, 2) }
