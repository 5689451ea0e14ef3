package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONWriter outputs summaries in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in the output.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the fircount version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONSummary is the document written by JSONWriter.
type JSONSummary struct {
	Version     string        `json:"version,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
	StartYear   int           `json:"startYear"`
	EndYear     int           `json:"endYear"`
	Total       int           `json:"total"`
	Statuses    StatusCounts  `json:"statuses"`
	Years       []YearTotal   `json:"years"`
	Regions     []RegionTotal `json:"regions"`
	Incomplete  []JSONRow     `json:"incomplete"`
}

// JSONRow is a failed or partial pair.
type JSONRow struct {
	Region    int    `json:"region"`
	SubRegion string `json:"subregion"`
	Status    string `json:"status"`
	Pages     int    `json:"pages"`
	Error     string `json:"error,omitempty"`
}

// NewJSONSummary converts a Summary to its JSON document.
func NewJSONSummary(summary *Summary, version string) *JSONSummary {
	incomplete := summary.Incomplete()
	rows := make([]JSONRow, len(incomplete))
	for i, r := range incomplete {
		rows[i] = JSONRow{
			Region:    int(r.Region),
			SubRegion: string(r.SubRegion),
			Status:    r.Status.String(),
			Pages:     r.Pages,
			Error:     r.ErrorString(),
		}
	}
	regions := summary.Regions()
	if regions == nil {
		regions = []RegionTotal{}
	}
	years := summary.Years()
	if years == nil {
		years = []YearTotal{}
	}
	return &JSONSummary{
		Version:     version,
		GeneratedAt: summary.GeneratedAt,
		StartYear:   summary.Buckets.StartYear,
		EndYear:     summary.Buckets.EndYear,
		Total:       summary.Total(),
		Statuses:    summary.Statuses(),
		Years:       years,
		Regions:     regions,
		Incomplete:  rows,
	}
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *Summary) (int, error) {
	return w.writeJSON(NewJSONSummary(summary, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
