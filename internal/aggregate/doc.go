// Package aggregate turns result-table rows into per-month record counts.
//
// Each row is scanned cell by cell for the first recognizable calendar date
// in day/month/year order (05/03/21, 5-3-2021, 05.03.2021). That date alone
// decides the row: it is counted in its (year, month) bucket when the year
// lies in the configured range, and ignored otherwise. A row therefore
// contributes at most one count even if its text holds several dates.
//
// An Aggregator belongs to a single crawl session and is never shared
// between goroutines. Its counts are copied into a model.CountRow once the
// session is done.
package aggregate
