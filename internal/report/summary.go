package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/nao1215/fircount/internal/model"
)

// Summary aggregates the rows of a run for reporting.
type Summary struct {
	Buckets     model.BucketRange
	GeneratedAt time.Time
	Rows        []model.CountRow
}

// StatusCounts is the number of rows per status.
type StatusCounts struct {
	OK      int `json:"ok"`
	Partial int `json:"partial"`
	Failed  int `json:"failed"`
	Empty   int `json:"emptyRegion"`
}

// Total returns the number of rows.
func (c StatusCounts) Total() int {
	return c.OK + c.Partial + c.Failed + c.Empty
}

// RegionTotal is the FIR count of one region.
type RegionTotal struct {
	Region     model.Region `json:"region"`
	SubRegions int          `json:"subregions"`
	FIRs       int          `json:"firs"`
	Incomplete int          `json:"incomplete"`
}

// YearTotal is the FIR count of one year across all pairs.
type YearTotal struct {
	Year int `json:"year"`
	FIRs int `json:"firs"`
}

// NewSummary creates a Summary with rows sorted by region and sub-region.
func NewSummary(buckets model.BucketRange, rows []model.CountRow, now time.Time) *Summary {
	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b model.CountRow) int {
		if c := cmp.Compare(a.Region, b.Region); c != 0 {
			return c
		}
		return cmp.Compare(a.SubRegion, b.SubRegion)
	})
	return &Summary{Buckets: buckets, GeneratedAt: now, Rows: sorted}
}

// Total returns the number of FIRs counted over all rows.
func (s *Summary) Total() int {
	total := 0
	for _, r := range s.Rows {
		total += r.Total()
	}
	return total
}

// Statuses counts rows per status.
func (s *Summary) Statuses() StatusCounts {
	var c StatusCounts
	for _, r := range s.Rows {
		switch r.Status {
		case model.StatusOK:
			c.OK++
		case model.StatusPartial:
			c.Partial++
		case model.StatusEmptyRegion:
			c.Empty++
		default:
			c.Failed++
		}
	}
	return c
}

// Regions returns one total per region in ascending order.
func (s *Summary) Regions() []RegionTotal {
	var totals []RegionTotal
	for _, r := range s.Rows {
		if len(totals) == 0 || totals[len(totals)-1].Region != r.Region {
			totals = append(totals, RegionTotal{Region: r.Region})
		}
		t := &totals[len(totals)-1]
		if !r.SubRegion.IsEmpty() {
			t.SubRegions++
		}
		t.FIRs += r.Total()
		if r.Status == model.StatusFailed || r.Status == model.StatusPartial {
			t.Incomplete++
		}
	}
	return totals
}

// Years returns one total per year of the bucket range.
func (s *Summary) Years() []YearTotal {
	if s.Buckets.Len() == 0 {
		return nil
	}
	years := make([]YearTotal, 0, s.Buckets.EndYear-s.Buckets.StartYear+1)
	for y := s.Buckets.StartYear; y <= s.Buckets.EndYear; y++ {
		years = append(years, YearTotal{Year: y})
	}
	for _, r := range s.Rows {
		for i, n := range r.Counts {
			if idx := i / 12; idx < len(years) {
				years[idx].FIRs += n
			}
		}
	}
	return years
}

// Incomplete returns the failed and partial rows.
func (s *Summary) Incomplete() []model.CountRow {
	var rows []model.CountRow
	for _, r := range s.Rows {
		if r.Status == model.StatusFailed || r.Status == model.StatusPartial {
			rows = append(rows, r)
		}
	}
	return rows
}
