package model

import (
	"errors"
	"testing"
	"time"
)

// TestBucketRange tests the month enumeration used for CSV columns.
func TestBucketRange(t *testing.T) {
	t.Parallel()

	t.Run("len is twelve per year", func(t *testing.T) {
		t.Parallel()
		r := BucketRange{StartYear: 2014, EndYear: 2025}
		if r.Len() != 144 {
			t.Errorf("expected 144 buckets, got %d", r.Len())
		}
		if len(r.Buckets()) != r.Len() {
			t.Errorf("Buckets() length %d does not match Len() %d", len(r.Buckets()), r.Len())
		}
	})

	t.Run("empty range", func(t *testing.T) {
		t.Parallel()
		r := BucketRange{StartYear: 2025, EndYear: 2024}
		if r.Len() != 0 {
			t.Errorf("expected 0 buckets, got %d", r.Len())
		}
		if len(r.Buckets()) != 0 {
			t.Errorf("expected no buckets, got %d", len(r.Buckets()))
		}
	})

	t.Run("columns are chronological", func(t *testing.T) {
		t.Parallel()
		cols := BucketRange{StartYear: 2020, EndYear: 2021}.Columns()
		if cols[0] != "2020-01" {
			t.Errorf("expected first column 2020-01, got %s", cols[0])
		}
		if cols[11] != "2020-12" {
			t.Errorf("expected 12th column 2020-12, got %s", cols[11])
		}
		if cols[len(cols)-1] != "2021-12" {
			t.Errorf("expected last column 2021-12, got %s", cols[len(cols)-1])
		}
	})

	t.Run("index matches enumeration", func(t *testing.T) {
		t.Parallel()
		r := BucketRange{StartYear: 2019, EndYear: 2022}
		for i, b := range r.Buckets() {
			if got := r.Index(b); got != i {
				t.Errorf("Index(%s) = %d, want %d", b, got, i)
			}
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()
		r := BucketRange{StartYear: 2019, EndYear: 2022}
		if got := r.Index(TimeBucket{Year: 2018, Month: time.December}); got != -1 {
			t.Errorf("expected -1, got %d", got)
		}
		if got := r.Index(TimeBucket{Year: 2023, Month: time.January}); got != -1 {
			t.Errorf("expected -1, got %d", got)
		}
	})
}

// TestRowStatus tests the String and ParseRowStatus round trip.
func TestRowStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   RowStatus
		expected string
	}{
		{StatusOK, "ok"},
		{StatusPartial, "partial"},
		{StatusFailed, "failed"},
		{StatusEmptyRegion, "empty-region"},
		{RowStatus(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.status.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.status.String(), tc.expected)
			}
		})
	}

	if ParseRowStatus("partial") != StatusPartial {
		t.Error("expected partial to parse")
	}
	if ParseRowStatus("garbage") != StatusFailed {
		t.Error("expected unknown status to parse as failed")
	}
}

// TestNewZeroRow tests that zero rows always have the full column count.
func TestNewZeroRow(t *testing.T) {
	t.Parallel()

	r := BucketRange{StartYear: 2014, EndYear: 2025}
	cause := errors.New("boom")
	row := NewZeroRow(Region(7), SubRegion("123"), r, StatusFailed, cause)

	if len(row.Counts) != r.Len() {
		t.Fatalf("expected %d counts, got %d", r.Len(), len(row.Counts))
	}
	if row.Total() != 0 {
		t.Errorf("expected zero total, got %d", row.Total())
	}
	if row.ErrorString() != "boom" {
		t.Errorf("expected error string 'boom', got %q", row.ErrorString())
	}
	if (CountRow{}).ErrorString() != "" {
		t.Error("expected empty error string for nil error")
	}
}

// TestStateTokens tests field ordering and zero detection.
func TestStateTokens(t *testing.T) {
	t.Parallel()

	tokens := StateTokens{ViewState: "vs", EventValidation: "ev"}
	fields := tokens.Fields()
	names := []string{FieldLastFocus, FieldViewState, FieldViewStateGenerator, FieldEventValidation}
	for i, f := range fields {
		if f.Name != names[i] {
			t.Errorf("field %d: got %s, want %s", i, f.Name, names[i])
		}
	}
	if fields[1].Value != "vs" || fields[3].Value != "ev" || fields[0].Value != "" {
		t.Errorf("unexpected values: %+v", fields)
	}
	if tokens.IsZero() {
		t.Error("expected non-zero tokens")
	}
	if !(StateTokens{}).IsZero() {
		t.Error("expected zero tokens")
	}
}

// TestPostbackAction tests page-turn detection.
func TestPostbackAction(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		action   PostbackAction
		marker   string
		expected bool
	}{
		{"numbered page", PostbackAction{Target: "gv", Argument: "Page$2"}, DefaultPageMarker, true},
		{"next page", PostbackAction{Target: "gv", Argument: "Page$Next"}, DefaultPageMarker, true},
		{"sort action", PostbackAction{Target: "gv", Argument: "Sort$Date"}, DefaultPageMarker, false},
		{"empty marker", PostbackAction{Target: "gv", Argument: "Page$2"}, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.action.IsPageTurn(tc.marker); got != tc.expected {
				t.Errorf("IsPageTurn(%q) = %v, want %v", tc.marker, got, tc.expected)
			}
		})
	}
}

// TestRegionRange tests inclusive region enumeration.
func TestRegionRange(t *testing.T) {
	t.Parallel()

	regions := RegionRange(1, 38)
	if len(regions) != 38 {
		t.Fatalf("expected 38 regions, got %d", len(regions))
	}
	if regions[0] != 1 || regions[37] != 38 {
		t.Errorf("unexpected bounds: %d..%d", regions[0], regions[37])
	}
	if RegionRange(5, 4) != nil {
		t.Error("expected nil for empty range")
	}
	if (Task{Region: 3, SubRegion: "41"}).String() != "3/41" {
		t.Errorf("unexpected task string %q", Task{Region: 3, SubRegion: "41"}.String())
	}
}
