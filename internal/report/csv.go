package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/nao1215/fircount/internal/model"
)

var (
	// ErrColumnMismatch is returned when a row does not have one count per bucket.
	ErrColumnMismatch = errors.New("row does not match the bucket range")

	// ErrHeaderMismatch is returned when an existing file is resumed with a
	// different bucket range.
	ErrHeaderMismatch = errors.New("existing CSV header does not match the bucket range")
)

// Header returns the CSV header for buckets.
func Header(buckets model.BucketRange) []string {
	return append([]string{"region_id", "subregion_id"}, buckets.Columns()...)
}

// CSVSink writes rows as CSV. It is safe for concurrent use.
type CSVSink struct {
	mu      sync.Mutex
	w       *csv.Writer
	closer  io.Closer
	buckets model.BucketRange
}

// NewCSVSink creates a CSVSink writing to w. The header is written first
// when writeHeader is set.
func NewCSVSink(w io.Writer, buckets model.BucketRange, writeHeader bool) (*CSVSink, error) {
	s := &CSVSink{w: csv.NewWriter(w), buckets: buckets}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	if writeHeader {
		if err := s.writeRecord(Header(buckets)); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	return s, nil
}

// OpenCSVFile creates the CSV file at path. With resume set and a non-empty
// file present, rows are appended after checking that its header matches.
func OpenCSVFile(path string, buckets model.BucketRange, resume bool) (*CSVSink, error) {
	if resume {
		header, err := readHeader(path)
		switch {
		case err == nil && header != nil:
			if !slices.Equal(header, Header(buckets)) {
				return nil, fmt.Errorf("%w: %s", ErrHeaderMismatch, path)
			}
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // user-provided output path
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", path, err)
			}
			return NewCSVSink(f, buckets, false)
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	f, err := os.Create(path) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	s, err := NewCSVSink(f, buckets, true)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// readHeader returns the first record of the file at path, or nil when the
// file is empty.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read only

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header of %s: %w", path, err)
	}
	return header, nil
}

// Write implements Sink. The row is flushed before Write returns.
func (s *CSVSink) Write(row model.CountRow) error {
	if len(row.Counts) != s.buckets.Len() {
		return fmt.Errorf("%w: %d counts for %d buckets", ErrColumnMismatch, len(row.Counts), s.buckets.Len())
	}

	record := make([]string, 0, len(row.Counts)+2)
	record = append(record, row.Region.String(), string(row.SubRegion))
	for _, n := range row.Counts {
		record = append(record, strconv.Itoa(n))
	}
	return s.writeRecord(record)
}

func (s *CSVSink) writeRecord(record []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Write(record); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file, if any.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
