package model

import (
	"fmt"
	"time"
)

// monthsPerYear is the number of buckets contributed by each year.
const monthsPerYear = 12

// TimeBucket is a (year, month) aggregation key.
type TimeBucket struct {
	Year  int
	Month time.Month
}

// String formats the bucket as YYYY-MM, the CSV column name.
func (b TimeBucket) String() string {
	return fmt.Sprintf("%04d-%02d", b.Year, int(b.Month))
}

// BucketRange is an inclusive range of years. Every year contributes
// twelve buckets in chronological order.
type BucketRange struct {
	StartYear int
	EndYear   int
}

// Len returns the number of buckets in the range, zero if the range is empty.
func (r BucketRange) Len() int {
	if r.EndYear < r.StartYear {
		return 0
	}
	return (r.EndYear - r.StartYear + 1) * monthsPerYear
}

// Contains reports whether year lies within the range.
func (r BucketRange) Contains(year int) bool {
	return year >= r.StartYear && year <= r.EndYear
}

// Buckets enumerates all buckets in chronological order.
func (r BucketRange) Buckets() []TimeBucket {
	buckets := make([]TimeBucket, 0, r.Len())
	for y := r.StartYear; y <= r.EndYear; y++ {
		for m := time.January; m <= time.December; m++ {
			buckets = append(buckets, TimeBucket{Year: y, Month: m})
		}
	}
	return buckets
}

// Index returns the position of b in Buckets(), or -1 if b is out of range.
func (r BucketRange) Index(b TimeBucket) int {
	if !r.Contains(b.Year) || b.Month < time.January || b.Month > time.December {
		return -1
	}
	return (b.Year-r.StartYear)*monthsPerYear + int(b.Month) - 1
}

// Columns returns the YYYY-MM column names in chronological order.
func (r BucketRange) Columns() []string {
	buckets := r.Buckets()
	cols := make([]string, len(buckets))
	for i, b := range buckets {
		cols[i] = b.String()
	}
	return cols
}
