package aggregate

import (
	"github.com/nao1215/fircount/internal/model"
)

// Aggregator folds result rows into bucket counts for one session.
type Aggregator struct {
	buckets model.BucketRange
	counts  []int
	rows    int
	dated   int
}

// New creates an Aggregator with all counts at zero.
func New(buckets model.BucketRange) *Aggregator {
	return &Aggregator{
		buckets: buckets,
		counts:  make([]int, buckets.Len()),
	}
}

// Ingest scans the cells of one row in order. The first cell holding a
// valid date decides the row: Ingest reports true and increments that
// date's bucket when the year is in range, and reports false otherwise.
// Cells after the deciding one are not scanned.
func (a *Aggregator) Ingest(cells []string) bool {
	a.rows++
	for _, cell := range cells {
		date, ok := ExtractDate(cell)
		if !ok {
			continue
		}
		a.dated++
		idx := a.buckets.Index(model.TimeBucket{Year: date.Year(), Month: date.Month()})
		if idx < 0 {
			return false
		}
		a.counts[idx]++
		return true
	}
	return false
}

// IngestAll ingests every row and returns how many were counted.
func (a *Aggregator) IngestAll(rows [][]string) int {
	counted := 0
	for _, row := range rows {
		if a.Ingest(row) {
			counted++
		}
	}
	return counted
}

// Counts returns a copy of the counts in bucket order.
func (a *Aggregator) Counts() []int {
	out := make([]int, len(a.counts))
	copy(out, a.counts)
	return out
}

// Total returns the number of counted rows.
func (a *Aggregator) Total() int {
	total := 0
	for _, n := range a.counts {
		total += n
	}
	return total
}

// Seen returns the number of rows ingested and how many of them had a date.
func (a *Aggregator) Seen() (rows, dated int) {
	return a.rows, a.dated
}

// Row builds the output row for this session.
func (a *Aggregator) Row(region model.Region, sub model.SubRegion, status model.RowStatus) model.CountRow {
	return model.CountRow{
		Region:    region,
		SubRegion: sub,
		Counts:    a.Counts(),
		Status:    status,
	}
}
