package report

import (
	"io"

	"github.com/nao1215/fircount/internal/model"
)

// Sink receives finished rows.
type Sink interface {
	// Write stores one row. Rows arrive in completion order.
	Write(row model.CountRow) error
}

// MultiSink writes each row to several sinks in order.
// It stops on the first error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a Sink that writes to all provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write implements Sink.
func (m *MultiSink) Write(row model.CountRow) error {
	for _, s := range m.sinks {
		if err := s.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that implements io.Closer and returns the first
// error encountered.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Writer renders a Summary.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *Summary) (int, error)
}

// baseWriter provides common functionality for summary writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
