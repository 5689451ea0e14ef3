package report

import (
	"io"
	"strconv"

	"github.com/nao1215/fircount/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxErrorLen bounds error messages in tables.
const maxErrorLen = 80

// MarkdownWriter outputs summaries in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeStatus(md, summary)
	w.writeYears(md, summary)
	w.writeRegions(md, summary)
	w.writeIncomplete(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run overview.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("FIR Count Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Years", strconv.Itoa(summary.Buckets.StartYear) + " - " + strconv.Itoa(summary.Buckets.EndYear)},
			{"Rows", strconv.Itoa(len(summary.Rows))},
			{"Total FIRs", strconv.Itoa(summary.Total())},
		},
	})
	md.PlainText("")
}

// writeStatus writes the row status breakdown with a chart and an alert.
func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, summary *Summary) {
	st := summary.Statuses()

	md.H2("Row Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Rows"},
		Rows: [][]string{
			{"✅ " + model.StatusOK.String(), strconv.Itoa(st.OK)},
			{"⚠️ " + model.StatusPartial.String(), strconv.Itoa(st.Partial)},
			{"❌ " + model.StatusFailed.String(), strconv.Itoa(st.Failed)},
			{"⚪ " + model.StatusEmptyRegion.String(), strconv.Itoa(st.Empty)},
			{"**Total**", "**" + strconv.Itoa(st.Total()) + "**"},
		},
	})
	md.PlainText("")

	if st.Total() > 0 {
		w.writePieChart(md, st)
	}
	w.writeAlert(md, st)
}

// writePieChart writes a mermaid pie chart of row statuses.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, st StatusCounts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Row Status Distribution"),
		piechart.WithShowData(true),
	)

	if st.OK > 0 {
		chart.LabelAndIntValue("ok", uint64(st.OK))
	}
	if st.Partial > 0 {
		chart.LabelAndIntValue("partial", uint64(st.Partial))
	}
	if st.Failed > 0 {
		chart.LabelAndIntValue("failed", uint64(st.Failed))
	}
	if st.Empty > 0 {
		chart.LabelAndIntValue("empty-region", uint64(st.Empty))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert tells whether the counts can be trusted as complete.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, st StatusCounts) {
	switch {
	case st.Failed > 0:
		md.Cautionf(
			"%d pair(s) failed and are reported as zero. Run again with --resume to retry them.",
			st.Failed,
		)
	case st.Partial > 0:
		md.Warningf(
			"%d pair(s) stopped during pagination. Their counts cover only the pages visited.",
			st.Partial,
		)
	case st.Total() == 0:
		md.Note("No rows have been recorded yet.")
	default:
		md.Tip("Every pair was crawled to the last result page.")
	}
	md.PlainText("")
}

// writeYears writes the FIR count per year.
func (w *MarkdownWriter) writeYears(md *markdown.Markdown, summary *Summary) {
	years := summary.Years()
	if len(years) == 0 {
		return
	}

	md.H2("FIRs per Year")
	md.PlainText("")

	rows := make([][]string, len(years))
	for i, y := range years {
		rows[i] = []string{strconv.Itoa(y.Year), strconv.Itoa(y.FIRs)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Year", "FIRs"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRegions writes the FIR count per region.
func (w *MarkdownWriter) writeRegions(md *markdown.Markdown, summary *Summary) {
	md.H2("Regions")
	md.PlainText("")

	regions := summary.Regions()
	if len(regions) == 0 {
		md.PlainText("No regions crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(regions))
	for i, r := range regions {
		rows[i] = []string{
			r.Region.String(),
			strconv.Itoa(r.SubRegions),
			strconv.Itoa(r.FIRs),
			strconv.Itoa(r.Incomplete),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Region", "Sub-regions", "FIRs", "Incomplete"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeIncomplete lists failed and partial pairs.
func (w *MarkdownWriter) writeIncomplete(md *markdown.Markdown, summary *Summary) {
	incomplete := summary.Incomplete()
	if len(incomplete) == 0 {
		return
	}

	md.H2("Incomplete Pairs")
	md.PlainText("")

	rows := make([][]string, len(incomplete))
	for i, r := range incomplete {
		sub := string(r.SubRegion)
		if sub == "" {
			sub = "-"
		}
		msg := r.ErrorString()
		if msg == "" {
			msg = "-"
		}
		rows[i] = []string{
			r.Region.String(),
			sub,
			r.Status.String(),
			strconv.Itoa(r.Pages),
			truncateString(msg, maxErrorLen),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Region", "Sub-region", "Status", "Pages", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [fircount](https://github.com/nao1215/fircount)*")
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
