// Package ingest adapts external flight log formats into frame.Frame,
// the narrow columnar type the rest of the pipeline consumes.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/oualidl290/flightsentry/internal/frame"
)

// FrameSource produces a Frame from some underlying log representation.
type FrameSource interface {
	Load() (*frame.Frame, error)
}

// CSVSource reads a flight log from CSV: the first row is a header of
// column names, every subsequent row a sample. A column named
// "timestamp" is treated specially and attached to the frame via
// WithTimestamps rather than as a regular feature column.
type CSVSource struct {
	reader io.Reader
}

// NewCSVSource wraps r as a FrameSource.
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{reader: r}
}

// Load parses the CSV into a Frame, forward/backward-filling any blank
// or unparsable cells via frame.Build.
func (s *CSVSource) Load() (*frame.Frame, error) {
	r := csv.NewReader(s.reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingest: reading header: %w", err)
	}

	raw := make(map[string][]float64, len(header))
	for _, col := range header {
		raw[col] = nil
	}

	rowCount := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: reading row %d: %w", rowCount, err)
		}

		for i, col := range header {
			if i >= len(row) {
				raw[col] = append(raw[col], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				raw[col] = append(raw[col], math.NaN())
				continue
			}
			raw[col] = append(raw[col], v)
		}
		rowCount++
	}

	var timestamps []float64
	if ts, ok := raw["timestamp"]; ok {
		timestamps = ts
		delete(raw, "timestamp")
	}

	f, err := frame.Build(raw, rowCount)
	if err != nil {
		return nil, fmt.Errorf("ingest: building frame: %w", err)
	}
	if timestamps != nil {
		f = f.WithTimestamps(timestamps)
	}
	return f, nil
}
