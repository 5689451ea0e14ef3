package report

import (
	"fmt"
	"io"
	"strings"
)

// SimpleWriter outputs plain text summaries for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every incomplete pair instead of the first few.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every incomplete pair.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// simpleIncompleteLimit is how many incomplete pairs are listed by default.
const simpleIncompleteLimit = 10

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeStatus(&sb, summary)
	w.writeRegions(&sb, summary)
	w.writeIncomplete(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("                      FIR COUNT REPORT\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Generated:  %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Years:      %d - %d\n", summary.Buckets.StartYear, summary.Buckets.EndYear)
	fmt.Fprintf(sb, "Rows:       %d\n", len(summary.Rows))
	fmt.Fprintf(sb, "Total FIRs: %d\n\n", summary.Total())
}

func (w *SimpleWriter) writeStatus(sb *strings.Builder, summary *Summary) {
	st := summary.Statuses()
	sb.WriteString("ROW STATUS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  ok:           %d\n", st.OK)
	fmt.Fprintf(sb, "  partial:      %d\n", st.Partial)
	fmt.Fprintf(sb, "  failed:       %d\n", st.Failed)
	fmt.Fprintf(sb, "  empty-region: %d\n\n", st.Empty)
}

func (w *SimpleWriter) writeRegions(sb *strings.Builder, summary *Summary) {
	regions := summary.Regions()
	if len(regions) == 0 {
		return
	}
	sb.WriteString("REGIONS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  %-8s %12s %10s %12s\n", "region", "subregions", "firs", "incomplete")
	for _, r := range regions {
		fmt.Fprintf(sb, "  %-8d %12d %10d %12d\n", r.Region, r.SubRegions, r.FIRs, r.Incomplete)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeIncomplete(sb *strings.Builder, summary *Summary) {
	incomplete := summary.Incomplete()
	if len(incomplete) == 0 {
		return
	}
	sb.WriteString("INCOMPLETE PAIRS\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")

	shown := incomplete
	if !w.verbose && len(shown) > simpleIncompleteLimit {
		shown = shown[:simpleIncompleteLimit]
	}
	for _, r := range shown {
		fmt.Fprintf(sb, "  %d/%s [%s] %s\n", r.Region, r.SubRegion, r.Status, r.ErrorString())
	}
	if rest := len(incomplete) - len(shown); rest > 0 {
		fmt.Fprintf(sb, "  ... and %d more (use --verbose)\n", rest)
	}
	sb.WriteString("\n")
}
