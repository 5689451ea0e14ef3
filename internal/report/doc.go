// Package report writes crawl results.
//
// Rows are streamed through a Sink while the crawl runs:
//   - CSVSink: the count table, one line per (region, sub-region) pair,
//     flushed after every row so an interrupted run keeps what it wrote
//   - MultiSink: fans a row out to several sinks
//
// After a run, a Summary built from the stored rows can be rendered by a
// Writer:
//   - MarkdownWriter: tables, a status chart and alerts for sharing
//   - JSONWriter: structured output for tool integration
//   - SimpleWriter: plain text for the terminal
package report
