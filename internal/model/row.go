package model

// RowStatus tells how a CountRow was produced. It is not part of the CSV
// schema but is logged and persisted so that a zero-filled failure row can
// be told apart from a genuine zero count.
type RowStatus int

const (
	// StatusOK means every page of the result set was visited.
	StatusOK RowStatus = iota
	// StatusPartial means pagination stopped on a transport failure after at
	// least one result page; the counts cover the pages seen.
	StatusPartial
	// StatusFailed means the task failed and the row is zero-filled.
	StatusFailed
	// StatusEmptyRegion means the region offered no sub-regions.
	StatusEmptyRegion
)

// String returns the lowercase name stored in the database.
func (s RowStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	case StatusEmptyRegion:
		return "empty-region"
	default:
		return "unknown"
	}
}

// ParseRowStatus is the inverse of RowStatus.String.
// Unknown names map to StatusFailed.
func ParseRowStatus(s string) RowStatus {
	switch s {
	case "ok":
		return StatusOK
	case "partial":
		return StatusPartial
	case "empty-region":
		return StatusEmptyRegion
	default:
		return StatusFailed
	}
}

// CountRow is the output unit: one (Region, SubRegion) pair with one count
// per bucket of the configured BucketRange, in chronological order.
// A CountRow is not modified after it is handed to a sink.
type CountRow struct {
	Region    Region
	SubRegion SubRegion
	Counts    []int
	Status    RowStatus
	// Pages is the number of result pages that were parsed.
	Pages int
	// Err is the absorbed failure for StatusFailed and StatusPartial rows.
	Err error
}

// NewZeroRow returns a zero-filled row for the given range.
func NewZeroRow(region Region, sub SubRegion, r BucketRange, status RowStatus, err error) CountRow {
	return CountRow{
		Region:    region,
		SubRegion: sub,
		Counts:    make([]int, r.Len()),
		Status:    status,
		Err:       err,
	}
}

// Total returns the sum of all counts.
func (c CountRow) Total() int {
	total := 0
	for _, n := range c.Counts {
		total += n
	}
	return total
}

// ErrorString returns the error message, or "" when Err is nil.
func (c CountRow) ErrorString() string {
	if c.Err == nil {
		return ""
	}
	return c.Err.Error()
}
