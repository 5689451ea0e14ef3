package model

import (
	"fmt"
	"strconv"
)

// Region is the coarse crawl target (a district on the FIR portal).
// Regions are enumerated externally and never discovered.
type Region int

// String returns the form value submitted for the region selector.
func (r Region) String() string {
	return strconv.Itoa(int(r))
}

// SubRegion is the fine-grained crawl target (a police station), discovered
// per Region from a dependent option list. The empty SubRegion marks a
// region that offered no sub-regions.
type SubRegion string

// IsEmpty reports whether s is the "no sub-region" marker.
func (s SubRegion) IsEmpty() bool {
	return s == ""
}

// Task identifies one crawl session.
type Task struct {
	Region    Region
	SubRegion SubRegion
}

// String returns "region/subregion" for logs.
func (t Task) String() string {
	return fmt.Sprintf("%d/%s", t.Region, t.SubRegion)
}

// RegionRange returns the inclusive list of regions from first to last.
// It returns nil when last < first.
func RegionRange(first, last int) []Region {
	if last < first {
		return nil
	}
	regions := make([]Region, 0, last-first+1)
	for r := first; r <= last; r++ {
		regions = append(regions, Region(r))
	}
	return regions
}
