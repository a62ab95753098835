package frame

import "math"

// FillMissing forward-fills, then back-fills, NaN entries into a copy of
// values, leaving the input slice unchanged. This is
// the loader-time policy spec.md requires: "missing samples are forward-
// then backward-filled at load." Columns that are entirely NaN become all
// zero, since there's nothing to propagate.
func FillMissing(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				out[i] = last
			}
			continue
		}
		last = v
	}

	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if math.IsNaN(out[i]) {
			if !math.IsNaN(next) {
				out[i] = next
			} else {
				out[i] = 0
			}
			continue
		}
		next = out[i]
	}
	return out
}

// Build constructs a Frame from raw columns (which may contain NaN for
// missing samples), applying FillMissing to each and checking that every
// present column shares the frame's length.
func Build(raw map[string][]float64, length int) (*Frame, error) {
	filled := make(map[string][]float64, len(raw))
	for name, values := range raw {
		if len(values) != length {
			return nil, &LengthMismatchError{Column: name, Got: len(values), Want: length}
		}
		filled[name] = FillMissing(values)
	}
	return New(filled, length), nil
}

// LengthMismatchError reports a column whose length disagrees with the
// frame's declared length — the invariant spec.md §3 calls load-bearing.
type LengthMismatchError struct {
	Column string
	Want   int
	Got    int
}

func (e *LengthMismatchError) Error() string {
	return "frame: column " + e.Column + " has mismatched length"
}
